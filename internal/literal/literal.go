// Package literal builds Go literal expressions for flag replacement values.
package literal

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"math"
	"strconv"
	"strings"
)

var ErrUnknownKind = errors.New("unknown flag value kind")

// Kind is the semantic type of a flag value.
type Kind int

const (
	KindAny Kind = iota
	KindBool
	KindString
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "any"
	}
}

// ParseKind accepts the names used in configuration files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return KindAny, nil
	case "bool", "boolean":
		return KindBool, nil
	case "string":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "double", "float64":
		return KindFloat, nil
	}
	return KindAny, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// KindOf reports the flag kind of a Go type. Only types whose underlying
// type is basic are classified.
func KindOf(t types.Type) (Kind, bool) {
	if t == nil {
		return KindAny, false
	}
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return KindAny, false
	}
	info := basic.Info()
	switch {
	case info&types.IsBoolean != 0:
		return KindBool, true
	case info&types.IsString != 0:
		return KindString, true
	case info&types.IsInteger != 0:
		return KindInt, true
	case info&types.IsFloat != 0:
		return KindFloat, true
	}
	return KindAny, false
}

// Value is a typed replacement value.
type Value struct {
	Kind Kind
	val  constant.Value
}

// Parse converts raw into a value of the given kind.
func Parse(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("invalid bool value %q: %w", raw, err)
		}
		return Value{Kind: kind, val: constant.MakeBool(b)}, nil
	case KindString:
		return Value{Kind: kind, val: constant.MakeString(raw)}, nil
	case KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int value %q: %w", raw, err)
		}
		return Value{Kind: kind, val: constant.MakeInt64(i)}, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float value %q: %w", raw, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, fmt.Errorf("invalid float value %q: not finite", raw)
		}
		return Value{Kind: kind, val: constant.MakeFloat64(f)}, nil
	}
	return Value{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

// MustParse is like Parse but panics on error.
func MustParse(kind Kind, raw string) Value {
	v, err := Parse(kind, raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Constant() constant.Value { return v.val }

func (v Value) String() string {
	if v.val == nil {
		return "<nil>"
	}
	if v.Kind == KindString {
		return constant.StringVal(v.val)
	}
	return v.val.ExactString()
}

// Expr builds the literal for v positioned at pos, typed for a call whose
// result type is t. Results whose basic type differs from the literal's
// default type get an explicit conversion, e.g. int64(3).
func (v Value) Expr(t types.Type, pos token.Pos) (ast.Expr, error) {
	kind, ok := KindOf(t)
	if !ok || kind != v.Kind {
		return nil, fmt.Errorf("cannot use %s value as %s", v.Kind, typeName(t))
	}
	basic, ok := t.(*types.Basic)
	if !ok {
		return nil, fmt.Errorf("result type %s is not a predeclared type", typeName(t))
	}

	lit := v.bare(pos)
	if basic.Kind() == defaultBasic(v.Kind) || basic.Info()&types.IsUntyped != 0 {
		return lit, nil
	}
	return &ast.CallExpr{
		Fun:    &ast.Ident{NamePos: pos, Name: basic.Name()},
		Lparen: pos,
		Args:   []ast.Expr{lit},
	}, nil
}

func (v Value) bare(pos token.Pos) ast.Expr {
	switch v.Kind {
	case KindBool:
		return &ast.Ident{NamePos: pos, Name: strconv.FormatBool(constant.BoolVal(v.val))}
	case KindString:
		return &ast.BasicLit{ValuePos: pos, Kind: token.STRING, Value: strconv.Quote(constant.StringVal(v.val))}
	case KindInt:
		abs := v.val
		if constant.Sign(abs) < 0 {
			abs = constant.UnaryOp(token.SUB, abs, 0)
		}
		return negate(constant.Sign(v.val) < 0, &ast.BasicLit{ValuePos: pos, Kind: token.INT, Value: abs.ExactString()})
	default:
		f, _ := constant.Float64Val(v.val)
		s := strconv.FormatFloat(math.Abs(f), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return negate(f < 0, &ast.BasicLit{ValuePos: pos, Kind: token.FLOAT, Value: s})
	}
}

// negate puts a unary minus in front of lit. A basic literal never holds
// a sign.
func negate(neg bool, lit *ast.BasicLit) ast.Expr {
	if !neg {
		return lit
	}
	return &ast.UnaryExpr{OpPos: lit.ValuePos, Op: token.SUB, X: lit}
}

// Operand wraps e in parentheses when it is a negative literal placed
// under a unary or binary operator, where -3 would otherwise print as --3.
func Operand(e ast.Expr, parent ast.Node) ast.Expr {
	if u, ok := e.(*ast.UnaryExpr); !ok || u.Op != token.SUB {
		return e
	}
	switch parent.(type) {
	case *ast.UnaryExpr, *ast.BinaryExpr:
		return &ast.ParenExpr{X: e}
	}
	return e
}

func defaultBasic(k Kind) types.BasicKind {
	switch k {
	case KindBool:
		return types.Bool
	case KindString:
		return types.String
	case KindInt:
		return types.Int
	default:
		return types.Float64
	}
}

func typeName(t types.Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}

// IsBool reports whether e is the predeclared true or false.
func IsBool(info *types.Info, e ast.Expr) (value, ok bool) {
	id, isIdent := ast.Unparen(e).(*ast.Ident)
	if !isIdent || (id.Name != "true" && id.Name != "false") {
		return false, false
	}
	if info != nil {
		if obj, found := info.Uses[id]; found && obj != nil && obj.Parent() != types.Universe {
			return false, false
		}
	}
	return id.Name == "true", true
}

// Bool returns a fresh true or false identifier.
func Bool(b bool, pos token.Pos) *ast.Ident {
	return &ast.Ident{NamePos: pos, Name: strconv.FormatBool(b)}
}

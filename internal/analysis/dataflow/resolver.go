// Package dataflow proves that expressions evaluate to known constants.
//
// Resolution is conservative. Whenever a value could differ between runs
// or between paths reaching the read, the answer is "not constant".
package dataflow

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/gnolang/flagsweep/internal/scope"
	"github.com/gnolang/flagsweep/internal/unit"
)

// maxDepth bounds how many variable hops a single query may follow.
const maxDepth = 16

// Proof is the outcome of resolving an expression.
type Proof struct {
	val constant.Value
}

// Unknown is the proof of an expression that is not provably constant.
var Unknown = Proof{}

func (p Proof) IsConstant() bool      { return p.val != nil }
func (p Proof) Value() constant.Value  { return p.val }

// Equals reports whether the proof shows the expression equals c.
func (p Proof) Equals(c constant.Value) bool {
	if p.val == nil || c == nil || !sameClass(p.val, c) {
		return false
	}
	return constant.Compare(p.val, token.EQL, c)
}

func (p Proof) String() string {
	if p.val == nil {
		return "not constant"
	}
	return p.val.ExactString()
}

type resolver struct {
	u    *unit.Unit
	info *types.Info
	seen map[*types.Var]bool
}

// Resolve decides whether e, read at cursor c, always evaluates to the same
// constant. Nothing is cached between calls.
func Resolve(c scope.Cursor, u *unit.Unit, e ast.Expr) Proof {
	r := &resolver{u: u, info: u.Info(), seen: make(map[*types.Var]bool)}
	return Proof{val: r.expr(c, e, 0)}
}

func (r *resolver) expr(c scope.Cursor, e ast.Expr, depth int) constant.Value {
	if depth > maxDepth || e == nil {
		return nil
	}
	e = ast.Unparen(e)
	if tv, ok := r.info.Types[e]; ok && tv.Value != nil {
		return tv.Value
	}

	switch x := e.(type) {
	case *ast.BasicLit:
		v := constant.MakeFromLiteral(x.Value, x.Kind, 0)
		if v.Kind() == constant.Unknown {
			return nil
		}
		return v
	case *ast.Ident:
		switch obj := r.info.Uses[x].(type) {
		case *types.Var:
			return r.variable(c.Move(x), obj, depth)
		case *types.Const:
			return obj.Val()
		case nil:
			if x.Name == "true" || x.Name == "false" {
				return constant.MakeBool(x.Name == "true")
			}
		}
	case *ast.UnaryExpr:
		v := r.expr(c, x.X, depth+1)
		return unary(x.Op, v)
	case *ast.BinaryExpr:
		a := r.expr(c, x.X, depth+1)
		if a == nil {
			return nil
		}
		b := r.expr(c, x.Y, depth+1)
		return Fold(x.Op, a, b)
	case *ast.CallExpr:
		return r.conversion(c, x, depth)
	}
	return nil
}

// conversion passes a constant through a conversion to a basic type of
// the same class, e.g. string(key) or int64(n).
func (r *resolver) conversion(c scope.Cursor, call *ast.CallExpr, depth int) constant.Value {
	tv, ok := r.info.Types[call.Fun]
	if !ok || !tv.IsType() || len(call.Args) != 1 {
		return nil
	}
	basic, ok := tv.Type.Underlying().(*types.Basic)
	if !ok {
		return nil
	}
	v := r.expr(c, call.Args[0], depth+1)
	if v == nil || !classMatches(basic, v) {
		return nil
	}
	return v
}

func (r *resolver) variable(c scope.Cursor, v *types.Var, depth int) constant.Value {
	if v.IsField() || v.Pkg() != r.u.Types() || r.seen[v] {
		return nil
	}
	r.seen[v] = true
	defer delete(r.seen, v)

	d, ok := findDeclaration(r.u.File, r.info, v)
	if !ok {
		// parameters, results, range variables and declarations in other units
		return nil
	}
	writes, escapes := collectWrites(r.u.Pkg.Files, r.info, v)
	if escapes {
		return nil
	}

	if !d.local {
		// another package could assign an exported variable
		if v.Exported() || len(writes) != boolInt(d.hasInit) {
			return nil
		}
		if !d.hasInit {
			return zero(v.Type())
		}
		return r.expr(c.Move(d.init), d.init, depth+1)
	}

	if c.Lookup(v.Pos()) == scope.None {
		return nil
	}
	fn := c.Func()
	if fn == scope.None || hasJumps(c.Tree.Get(fn).Node) {
		return nil
	}

	if d.hasInit {
		if len(writes) != 1 {
			return nil
		}
		return r.expr(c.Move(d.init), d.init, depth+1)
	}

	switch len(writes) {
	case 0:
		return zero(v.Type())
	case 1:
		w := writes[0]
		if w.rhs == nil || !r.dominates(c, w.stmt) {
			return nil
		}
		return r.expr(c.Move(w.rhs), w.rhs, depth+1)
	}
	return nil
}

// dominates reports whether stmt runs on every path reaching the cursor.
// Without goto, that holds when stmt sits in a scope enclosing the read,
// inside the same function, and precedes it. A for statement's post
// statement precedes the body in the source but runs after it.
func (r *resolver) dominates(c scope.Cursor, stmt ast.Node) bool {
	if stmt.End() > c.Node.Pos() {
		return false
	}
	ws := c.Tree.Innermost(stmt.Pos())
	if c.Tree.EnclosingFunc(ws) != c.Func() {
		return false
	}
	if loop, ok := c.Tree.Get(ws).Node.(*ast.ForStmt); ok && loop.Post == stmt {
		return false
	}
	return c.Tree.Encloses(ws, c.Scope)
}

func unary(op token.Token, v constant.Value) constant.Value {
	if v == nil {
		return nil
	}
	switch op {
	case token.NOT:
		if v.Kind() == constant.Bool {
			return constant.UnaryOp(op, v, 0)
		}
	case token.SUB, token.ADD:
		if isNumeric(v) {
			return constant.UnaryOp(op, v, 0)
		}
	}
	return nil
}

// Fold evaluates a binary operation over two constants. Operations that
// could differ under Go's typed arithmetic (division, shifts, bit ops)
// are not folded.
func Fold(op token.Token, a, b constant.Value) constant.Value {
	if a == nil || b == nil || !sameClass(a, b) {
		return nil
	}
	switch op {
	case token.EQL, token.NEQ:
		return constant.MakeBool(constant.Compare(a, op, b))
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
		if a.Kind() == constant.Bool {
			return nil
		}
		return constant.MakeBool(constant.Compare(a, op, b))
	case token.LAND, token.LOR:
		if a.Kind() != constant.Bool {
			return nil
		}
		return constant.BinaryOp(a, op, b)
	case token.ADD:
		if a.Kind() == constant.String || isNumeric(a) {
			return constant.BinaryOp(a, op, b)
		}
	case token.SUB, token.MUL:
		if isNumeric(a) {
			return constant.BinaryOp(a, op, b)
		}
	}
	return nil
}

func sameClass(a, b constant.Value) bool {
	switch {
	case a.Kind() == constant.Bool:
		return b.Kind() == constant.Bool
	case a.Kind() == constant.String:
		return b.Kind() == constant.String
	case isNumeric(a):
		return isNumeric(b)
	}
	return false
}

func isNumeric(v constant.Value) bool {
	switch v.Kind() {
	case constant.Int, constant.Float:
		return true
	}
	return false
}

func classMatches(basic *types.Basic, v constant.Value) bool {
	info := basic.Info()
	switch v.Kind() {
	case constant.Bool:
		return info&types.IsBoolean != 0
	case constant.String:
		return info&types.IsString != 0
	case constant.Int:
		return info&types.IsInteger != 0
	case constant.Float:
		return info&types.IsFloat != 0
	}
	return false
}

// zero returns the zero value of a basic type.
func zero(t types.Type) constant.Value {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return nil
	}
	info := basic.Info()
	switch {
	case info&types.IsBoolean != 0:
		return constant.MakeBool(false)
	case info&types.IsString != 0:
		return constant.MakeString("")
	case info&types.IsInteger != 0:
		return constant.MakeInt64(0)
	case info&types.IsFloat != 0:
		return constant.MakeFloat64(0)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

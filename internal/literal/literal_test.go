package literal

import (
	"bytes"
	"go/ast"
	"go/constant"
	"go/format"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Kind
	}{
		{"", KindAny},
		{"any", KindAny},
		{"bool", KindBool},
		{"Boolean", KindBool},
		{"string", KindString},
		{" int ", KindInt},
		{"integer", KindInt},
		{"double", KindFloat},
		{"float64", KindFloat},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}

	_, err := ParseKind("uuid")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "any", KindAny.String())
}

func TestParse(t *testing.T) {
	t.Parallel()

	valid := []struct {
		kind     Kind
		raw      string
		expected string
	}{
		{KindBool, "true", "true"},
		{KindBool, "0", "false"},
		{KindString, "dark mode", "dark mode"},
		{KindString, "", ""},
		{KindInt, "-42", "-42"},
	}
	for _, tt := range valid {
		v, err := Parse(tt.kind, tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.kind, v.Kind)
		assert.Equal(t, tt.expected, v.String())
	}

	f, _ := constant.Float64Val(MustParse(KindFloat, "0.25").Constant())
	assert.Equal(t, 0.25, f)

	invalid := []struct {
		kind Kind
		raw  string
	}{
		{KindBool, "yes"},
		{KindInt, "1.5"},
		{KindFloat, "abc"},
		{KindFloat, "NaN"},
		{KindFloat, "1e400"},
	}
	for _, tt := range invalid {
		_, err := Parse(tt.kind, tt.raw)
		assert.Error(t, err, tt.raw)
	}

	_, err := Parse(KindAny, "x")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Panics(t, func() { MustParse(KindInt, "x") })
}

func render(t *testing.T, e ast.Expr) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), e))
	return buf.String()
}

func TestExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    Value
		typ      types.Type
		expected string
	}{
		{name: "bool", value: MustParse(KindBool, "true"), typ: types.Typ[types.Bool], expected: "true"},
		{name: "untyped bool", value: MustParse(KindBool, "false"), typ: types.Typ[types.UntypedBool], expected: "false"},
		{name: "quoted string", value: MustParse(KindString, `a"b`), typ: types.Typ[types.String], expected: `"a\"b"`},
		{name: "int", value: MustParse(KindInt, "3"), typ: types.Typ[types.Int], expected: "3"},
		{name: "int64 conversion", value: MustParse(KindInt, "3"), typ: types.Typ[types.Int64], expected: "int64(3)"},
		{name: "whole float", value: MustParse(KindFloat, "2"), typ: types.Typ[types.Float64], expected: "2.0"},
		{name: "float32 conversion", value: MustParse(KindFloat, "0.5"), typ: types.Typ[types.Float32], expected: "float32(0.5)"},
		{name: "exponent", value: MustParse(KindFloat, "1e21"), typ: types.Typ[types.Float64], expected: "1e+21"},
		{name: "negative int", value: MustParse(KindInt, "-3"), typ: types.Typ[types.Int], expected: "-3"},
		{name: "negative int64", value: MustParse(KindInt, "-3"), typ: types.Typ[types.Int64], expected: "int64(-3)"},
		{name: "negative float", value: MustParse(KindFloat, "-2.5"), typ: types.Typ[types.Float64], expected: "-2.5"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := tt.value.Expr(tt.typ, token.NoPos)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, render(t, e))
		})
	}
}

func TestOperand(t *testing.T) {
	t.Parallel()

	neg, err := MustParse(KindInt, "-3").Expr(types.Typ[types.Int], token.NoPos)
	require.NoError(t, err)
	pos, err := MustParse(KindInt, "3").Expr(types.Typ[types.Int], token.NoPos)
	require.NoError(t, err)

	tests := []struct {
		name     string
		expr     ast.Expr
		parent   ast.Node
		expected string
	}{
		{name: "negated", expr: neg, parent: &ast.UnaryExpr{Op: token.SUB}, expected: "(-3)"},
		{name: "binary operand", expr: neg, parent: &ast.BinaryExpr{Op: token.SUB}, expected: "(-3)"},
		{name: "return value", expr: neg, parent: &ast.ReturnStmt{}, expected: "-3"},
		{name: "positive", expr: pos, parent: &ast.UnaryExpr{Op: token.SUB}, expected: "3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, render(t, Operand(tt.expr, tt.parent)), tt.name)
	}

	// the wrapped literal prints as valid Go under a unary minus
	assert.Equal(t, "-(-3)", render(t, &ast.UnaryExpr{Op: token.SUB, X: Operand(neg, &ast.UnaryExpr{})}))
}

func TestExprErrors(t *testing.T) {
	t.Parallel()

	_, err := MustParse(KindBool, "true").Expr(types.Typ[types.String], token.NoPos)
	assert.Error(t, err)

	named := types.NewNamed(types.NewTypeName(token.NoPos, nil, "Enabled", nil), types.Typ[types.Bool], nil)
	_, err = MustParse(KindBool, "true").Expr(named, token.NoPos)
	assert.Error(t, err)

	_, err = MustParse(KindInt, "1").Expr(nil, token.NoPos)
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	kind, ok := KindOf(types.Typ[types.Uint8])
	assert.True(t, ok)
	assert.Equal(t, KindInt, kind)

	kind, ok = KindOf(types.NewNamed(types.NewTypeName(token.NoPos, nil, "Mode", nil), types.Typ[types.String], nil))
	assert.True(t, ok)
	assert.Equal(t, KindString, kind)

	_, ok = KindOf(types.NewSlice(types.Typ[types.Int]))
	assert.False(t, ok)
	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestIsBool(t *testing.T) {
	t.Parallel()

	v, ok := IsBool(nil, &ast.ParenExpr{X: Bool(true, token.NoPos)})
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = IsBool(nil, ast.NewIdent("false"))
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = IsBool(nil, ast.NewIdent("enabled"))
	assert.False(t, ok)

	// a local named true shadows the predeclared one
	id := ast.NewIdent("true")
	info := &types.Info{Uses: map[*ast.Ident]types.Object{
		id: types.NewVar(token.NoPos, types.NewPackage("example.com/app", "app"), "true", types.Typ[types.Bool]),
	}}
	_, ok = IsBool(info, id)
	assert.False(t, ok)
}

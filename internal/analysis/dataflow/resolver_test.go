package dataflow

import (
	"go/ast"
	"go/constant"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/flagsweep/internal/scope"
	"github.com/gnolang/flagsweep/internal/unit"
)

func load(t *testing.T, src string) *unit.Unit {
	t.Helper()
	pkg, err := unit.LoadSources("example.com/app", map[string]string{"app.go": src})
	require.NoError(t, err)
	require.Empty(t, pkg.Errors())
	return pkg.Units()[0]
}

// sinkArg returns the argument of the first call to sink.
func sinkArg(t *testing.T, u *unit.Unit) ast.Expr {
	t.Helper()
	var arg ast.Expr
	ast.Inspect(u.File, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || arg != nil {
			return arg == nil
		}
		if id, ok := call.Fun.(*ast.Ident); ok && id.Name == "sink" {
			arg = call.Args[0]
		}
		return true
	})
	require.NotNil(t, arg, "no call to sink")
	return arg
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
		// constant is false when the expression must not resolve
		constant bool
	}{
		{
			name: "literal",
			body: `func f() { sink("k") }`,
			want:     "k",
			constant: true,
		},
		{
			name: "short var",
			body: `func f() { key := "k"; sink(key) }`,
			want:     "k",
			constant: true,
		},
		{
			name: "named const",
			body: `const key = "k"
func f() { sink(key) }`,
			want:     "k",
			constant: true,
		},
		{
			name: "dominating assignment",
			body: `func f() {
	var key string
	key = "k"
	sink(key)
}`,
			want:     "k",
			constant: true,
		},
		{
			name: "reassigned in two branches",
			body: `func f(c bool) {
	var key string
	if c {
		key = "a"
	} else {
		key = "b"
	}
	sink(key)
}`,
		},
		{
			name: "conditional assignment",
			body: `func f(c bool) {
	var key string
	if c {
		key = "k"
	}
	sink(key)
}`,
		},
		{
			name: "written after read",
			body: `func f() {
	key := "k"
	sink(key)
	key = "x"
	sink(key)
}`,
		},
		{
			name: "address taken",
			body: `func f() {
	key := "k"
	p := &key
	_ = p
	sink(key)
}`,
		},
		{
			name: "written in closure",
			body: `func f() {
	key := "k"
	func() { key = "x" }()
	sink(key)
}`,
		},
		{
			name: "parameter",
			body: `func f(key string) { sink(key) }`,
		},
		{
			name: "call result",
			body: `func name() string { return "k" }
func f() { sink(name()) }`,
		},
		{
			name: "package var never written",
			body: `var key = "k"
func f() { sink(key) }`,
			want:     "k",
			constant: true,
		},
		{
			name: "package var written elsewhere",
			body: `var key = "k"
func set() { key = "x" }
func f() { sink(key) }`,
		},
		{
			name: "exported package var",
			body: `var Key = "k"
func f() { sink(Key) }`,
		},
		{
			name: "chain of locals",
			body: `func f() {
	a := "k"
	b := a
	sink(b)
}`,
			want:     "k",
			constant: true,
		},
		{
			name: "concatenation",
			body: `func f() {
	prefix := "feature."
	sink(prefix + "k")
}`,
			want:     "feature.k",
			constant: true,
		},
		{
			name: "zero value",
			body: `func f() {
	var key string
	sink(key)
}`,
			constant: true,
		},
		{
			name: "goto",
			body: `func f() {
	var key string
	key = "k"
	goto end
end:
	sink(key)
}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := load(t, "package app\n\nfunc sink(string) {}\n\n"+tt.body+"\n")
			arg := sinkArg(t, u)
			tree := scope.Build(u.File)

			proof := Resolve(tree.At(arg), u, arg)
			if tt.constant {
				require.True(t, proof.IsConstant(), "expected a constant, got %s", proof)
				assert.True(t, proof.Equals(constant.MakeString(tt.want)), "got %s", proof)
				return
			}
			assert.False(t, proof.IsConstant(), "got %s", proof)
		})
	}
}

func TestProofEquals(t *testing.T) {
	t.Parallel()

	p := Proof{val: constant.MakeInt64(3)}
	assert.True(t, p.Equals(constant.MakeFloat64(3)))
	assert.False(t, p.Equals(constant.MakeString("3")))
	assert.False(t, Unknown.Equals(constant.MakeString("")))
	assert.Equal(t, "not constant", Unknown.String())
}

func TestFold(t *testing.T) {
	t.Parallel()

	s := constant.MakeString
	i := constant.MakeInt64

	assert.Equal(t, `"ab"`, Fold(token.ADD, s("a"), s("b")).ExactString())
	assert.Equal(t, "5", Fold(token.ADD, i(2), i(3)).ExactString())
	assert.Nil(t, Fold(token.QUO, i(4), i(2)))
	assert.Nil(t, Fold(token.ADD, s("a"), i(1)))
	assert.True(t, constant.BoolVal(Fold(token.EQL, s("a"), s("a"))))
}

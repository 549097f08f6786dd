package effects

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/flagsweep/internal/unit"
)

func TestPure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		pure bool
	}{
		{`1 + 2`, true},
		{`"a" + s`, true},
		{`T{Key: "k"}`, true},
		{`&T{}`, true},
		{`func() { load() }`, true},
		{`int64(n)`, true},
		{`len(xs)`, true},
		{`make([]int, n)`, true},
		{`m["k"]`, true},
		{`load()`, false},
		{`xs[0]`, false},
		{`xs[1:]`, false},
		{`*p`, false},
		{`<-ch`, false},
		{`any(n).(int)`, false},
		{`append(xs, 1)`, false},
		{`T{Key: name()}`, false},
	}

	var b []byte
	b = append(b, "package app\n\ntype T struct{ Key string }\n\nfunc load() int { return 1 }\nfunc name() string { return \"\" }\n\nfunc f(s string, n int, xs []int, m map[string]int, p *int, ch chan int) {\n"...)
	for _, tt := range tests {
		b = append(b, "\t_ = "+tt.expr+"\n"...)
	}
	b = append(b, "}\n"...)

	pkg, err := unit.LoadSources("example.com/app", map[string]string{"app.go": string(b)})
	require.NoError(t, err)
	require.Empty(t, pkg.Errors())

	var exprs []ast.Expr
	ast.Inspect(pkg.Units()[0].File, func(n ast.Node) bool {
		if as, ok := n.(*ast.AssignStmt); ok {
			exprs = append(exprs, as.Rhs[0])
		}
		return true
	})
	require.Len(t, exprs, len(tests))

	for i, tt := range tests {
		assert.Equal(t, tt.pure, Pure(pkg.Info, exprs[i]), tt.expr)
	}

	// without type information every call is assumed to have effects
	assert.False(t, Pure(nil, exprs[5]))
	assert.True(t, Pure(nil, exprs[0]))
}

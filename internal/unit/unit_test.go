package unit

import (
	"errors"
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

const appSrc = `package app

// greeting is used by Hello.
var greeting = "hi"

func Hello() string {
	// inline comment
	return greeting
}
`

func loadApp(t *testing.T) (*Package, *Unit) {
	t.Helper()
	pkg, err := LoadSources("example.com/app", map[string]string{
		"b.go":        "package app\n\nfunc B() string { return greeting }\n",
		"app.go":      appSrc,
		"app_test.go": "package app\n\nfunc TestUsesHelper() { helperOnlyTests() }\n",
	})
	require.NoError(t, err)
	require.Empty(t, pkg.Errors())
	units := pkg.Units()
	require.Len(t, units, 2)
	return pkg, units[0]
}

func TestLoadSources(t *testing.T) {
	t.Parallel()

	pkg, u := loadApp(t)
	assert.Equal(t, "app", pkg.Name)
	assert.Equal(t, []string{"app.go", "b.go"}, pkg.Filenames)
	assert.Equal(t, "app.go", u.Filename)
	assert.Equal(t, appSrc, string(u.Original))
	assert.True(t, pkg.ReferencedExternally("helperOnlyTests"))
	assert.False(t, pkg.ReferencedExternally("Hello"))

	_, err := LoadSources("example.com/app", map[string]string{"x.go": "package"})
	assert.Error(t, err)
	_, err = LoadSources("example.com/app", map[string]string{"x_test.go": "package app"})
	assert.Error(t, err)

	broken, err := LoadSources("example.com/app", map[string]string{"x.go": "package app\n\nvar x int = \"s\"\n"})
	require.NoError(t, err)
	assert.NotEmpty(t, broken.Errors())
}

type pass struct {
	name    string
	changed bool
	err     error
	run     func(u *Unit)
	calls   *[]string
}

func (p pass) Name() string { return p.name }

func (p pass) Run(u *Unit) (bool, error) {
	*p.calls = append(*p.calls, p.name)
	if p.run != nil {
		p.run(u)
	}
	return p.changed, p.err
}

func TestDrain(t *testing.T) {
	t.Parallel()

	_, u := loadApp(t)
	var calls []string

	u.Defer(pass{name: "first", calls: &calls, run: func(u *Unit) {
		u.Defer(pass{name: "third", calls: &calls})
	}})
	u.Defer(pass{name: "second", changed: true, calls: &calls})
	u.Defer(pass{name: "first", calls: &calls})
	assert.Equal(t, 2, u.Pending())

	require.NoError(t, u.Drain(nil))
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Zero(t, u.Pending())
	assert.True(t, u.Changed())
}

func TestDrainError(t *testing.T) {
	t.Parallel()

	_, u := loadApp(t)
	var calls []string
	boom := errors.New("boom")

	u.Defer(pass{name: "fails", err: boom, calls: &calls})
	u.Defer(pass{name: "never", calls: &calls})

	err := u.Drain(nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "pass fails on app.go")
	assert.Equal(t, []string{"fails"}, calls)
	assert.Zero(t, u.Pending())
}

func TestSource(t *testing.T) {
	t.Parallel()

	_, u := loadApp(t)
	out, err := u.Source()
	require.NoError(t, err)
	assert.Equal(t, appSrc, string(out))

	// drop the doc comment of greeting
	decl := u.File.Decls[0].(*ast.GenDecl)
	u.RemoveComments(decl.Doc)
	u.MarkChanged()

	out, err = u.Source()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "greeting is used by Hello")
	assert.Contains(t, string(out), "// inline comment")
}

func TestUsesAndContains(t *testing.T) {
	t.Parallel()

	pkg, u := loadApp(t)
	obj := pkg.Types.Scope().Lookup("greeting")
	require.NotNil(t, obj)

	uses := u.Uses(obj)
	require.Len(t, uses, 2)

	inUnit := 0
	for _, id := range uses {
		if u.Contains(id.Pos()) {
			inUnit++
		}
	}
	assert.Equal(t, 1, inUnit)
}

func TestModuleVersions(t *testing.T) {
	t.Parallel()

	pkgs := []*Package{
		{Deps: map[string]*packages.Module{
			"github.com/launchdarkly/go-server-sdk/v7": {Path: "github.com/launchdarkly/go-server-sdk/v7", Version: "v7.1.0"},
		}},
		{Deps: map[string]*packages.Module{
			"github.com/open-feature/go-sdk/openfeature": {
				Path:    "github.com/open-feature/go-sdk",
				Version: "v1.10.0",
				Replace: &packages.Module{Path: "../go-sdk", Version: "v1.11.0"},
			},
		}},
	}
	assert.Equal(t, map[string]string{
		"github.com/launchdarkly/go-server-sdk/v7": "v7.1.0",
		"github.com/open-feature/go-sdk":           "v1.11.0",
	}, ModuleVersions(pkgs))
}

func TestSourceJoinsRemovedLines(t *testing.T) {
	t.Parallel()

	const src = `package app

func Run() {
	a := 1
	println(a)
	println("gone")
	println("kept")

	println("after blank")
}
`
	tests := []struct {
		name     string
		remove   []int
		expected string
	}{
		{
			name:   "statement between statements",
			remove: []int{2},
			expected: `package app

func Run() {
	a := 1
	println(a)
	println("kept")

	println("after blank")
}
`,
		},
		{
			name:   "blank line next to surviving code",
			remove: []int{2, 3},
			expected: `package app

func Run() {
	a := 1
	println(a)

	println("after blank")
}
`,
		},
		{
			name:   "whole body",
			remove: []int{0, 1, 2, 3, 4},
			expected: `package app

func Run() {
}
`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pkg, err := LoadSources("example.com/app", map[string]string{"app.go": src})
			require.NoError(t, err)
			u := pkg.Units()[0]

			body := u.File.Decls[0].(*ast.FuncDecl).Body
			removed := make(map[int]bool)
			for _, i := range tt.remove {
				removed[i] = true
			}
			var kept []ast.Stmt
			for i, s := range body.List {
				if !removed[i] {
					kept = append(kept, s)
				}
			}
			body.List = kept
			u.MarkChanged()

			out, err := u.Source()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

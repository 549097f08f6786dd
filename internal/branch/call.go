package branch

import (
	"go/ast"
	"go/types"
)

type Call struct {
	Pkg  string // package path, empty for builtins
	Name string // function name
}

// DeviatingFuncs lists known control flow deviating function calls.
var DeviatingFuncs = map[Call]BranchKind{
	{"os", "Exit"}:     Exit,
	{"log", "Fatal"}:   Exit,
	{"log", "Fatalf"}:  Exit,
	{"log", "Fatalln"}: Exit,
	{"", "panic"}:      Panic,
	{"log", "Panic"}:   Panic,
	{"log", "Panicf"}:  Panic,
	{"log", "Panicln"}: Panic,
}

// ExprCall gets the called function of an ExprStmt. With type information
// the package is resolved through imports, so a renamed import of os still
// counts and a local variable named os does not.
func ExprCall(info *types.Info, expr *ast.ExprStmt) (Call, bool) {
	call, ok := expr.X.(*ast.CallExpr)
	if !ok {
		return Call{}, false
	}

	switch v := ast.Unparen(call.Fun).(type) {
	case *ast.Ident:
		if info != nil {
			if _, ok := info.Uses[v].(*types.Builtin); !ok {
				return Call{}, false
			}
		}
		return Call{Name: v.Name}, true
	case *ast.SelectorExpr:
		ident, ok := v.X.(*ast.Ident)
		if !ok {
			return Call{}, false
		}
		if info == nil {
			return Call{Pkg: ident.Name, Name: v.Sel.Name}, true
		}
		if pkg, ok := info.Uses[ident].(*types.PkgName); ok {
			return Call{Pkg: pkg.Imported().Path(), Name: v.Sel.Name}, true
		}
	}

	return Call{}, false
}

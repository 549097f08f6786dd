// Package effects decides whether evaluating an expression is observable.
package effects

import (
	"go/ast"
	"go/token"
	"go/types"
)

// Pure reports whether evaluating e has no side effects. Function calls
// are impure except type conversions and a few side-effect-free builtins.
// Allocations (&T{}, composite literals, func literals) count as pure.
func Pure(info *types.Info, e ast.Expr) bool {
	pure := true
	ast.Inspect(e, func(n ast.Node) bool {
		if !pure {
			return false
		}
		switch x := n.(type) {
		case *ast.FuncLit:
			// creating a closure runs nothing
			return false
		case *ast.UnaryExpr:
			if x.Op == token.ARROW {
				pure = false
			}
		case *ast.CallExpr:
			if !pureCall(info, x) {
				pure = false
			}
		case *ast.IndexExpr:
			// map reads are pure; slice and array reads may panic
			if info == nil {
				pure = false
				break
			}
			if _, ok := underlying(info.TypeOf(x.X)).(*types.Map); !ok {
				if tv, ok := info.Types[x]; !ok || tv.Value == nil {
					pure = false
				}
			}
		case *ast.StarExpr:
			if info == nil || !info.Types[x].IsType() {
				pure = false
			}
		case *ast.TypeAssertExpr, *ast.SliceExpr:
			pure = false
		}
		return pure
	})
	return pure
}

func pureCall(info *types.Info, call *ast.CallExpr) bool {
	if info == nil {
		return false
	}
	if tv, ok := info.Types[call.Fun]; ok && tv.IsType() {
		return true
	}
	if tv, ok := info.Types[call]; ok && tv.Value != nil {
		return true
	}
	id, ok := ast.Unparen(call.Fun).(*ast.Ident)
	if !ok {
		return false
	}
	if _, ok := info.Uses[id].(*types.Builtin); !ok {
		return false
	}
	switch id.Name {
	case "len", "cap", "make", "new", "complex", "real", "imag", "min", "max":
		return true
	}
	return false
}

func underlying(t types.Type) types.Type {
	if t == nil {
		return nil
	}
	return t.Underlying()
}

package simplify

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/gnolang/flagsweep/internal/analysis/effects"
	"github.com/gnolang/flagsweep/internal/unit"
)

// rewriteLists calls fn on every statement list below root and stores the
// returned list when fn reports a change.
func rewriteLists(root ast.Node, fn func([]ast.Stmt) ([]ast.Stmt, bool)) bool {
	changed := false
	ast.Inspect(root, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.BlockStmt:
			if list, ok := fn(x.List); ok {
				x.List = list
				changed = true
			}
		case *ast.CaseClause:
			if list, ok := fn(x.Body); ok {
				x.Body = list
				changed = true
			}
		case *ast.CommClause:
			if list, ok := fn(x.Body); ok {
				x.Body = list
				changed = true
			}
		}
		return true
	})
	return changed
}

// effectsOf turns the impure expressions of exprs into statements that
// still evaluate them.
func effectsOf(info *types.Info, exprs []ast.Expr) []ast.Stmt {
	var stmts []ast.Stmt
	for _, e := range exprs {
		if effects.Pure(info, e) {
			continue
		}
		if canStand(info, e) {
			stmts = append(stmts, &ast.ExprStmt{X: e})
			continue
		}
		stmts = append(stmts, &ast.AssignStmt{
			Lhs:    []ast.Expr{blank(e.Pos())},
			TokPos: e.Pos(),
			Tok:    token.ASSIGN,
			Rhs:    []ast.Expr{e},
		})
	}
	return stmts
}

// canStand reports whether e may be used as an expression statement.
func canStand(info *types.Info, e ast.Expr) bool {
	switch x := ast.Unparen(e).(type) {
	case *ast.UnaryExpr:
		return x.Op == token.ARROW
	case *ast.CallExpr:
		if tv, ok := info.Types[x.Fun]; ok && tv.IsType() {
			return false
		}
		if id, ok := ast.Unparen(x.Fun).(*ast.Ident); ok {
			if b, ok := info.Uses[id].(*types.Builtin); ok {
				switch b.Name() {
				case "copy", "panic", "print", "println", "recover", "clear", "close", "delete":
					return true
				}
				return false
			}
		}
		return true
	}
	return false
}

func blank(pos token.Pos) *ast.Ident { return &ast.Ident{NamePos: pos, Name: "_"} }

func isBlank(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == "_"
}

// isLiteral reports whether e is a basic literal or true/false.
func isLiteral(info *types.Info, e ast.Expr) bool {
	switch x := ast.Unparen(e).(type) {
	case *ast.BasicLit:
		return true
	case *ast.Ident:
		if x.Name != "true" && x.Name != "false" {
			return false
		}
		obj := info.Uses[x]
		return obj == nil || obj.Parent() == types.Universe
	}
	return false
}

// dropComments removes the comments of deleted statements.
func dropComments(u *unit.Unit, stmts ...ast.Stmt) {
	for _, s := range stmts {
		u.RemoveComments(s)
	}
}

// removeDecl drops decl from the file together with its comments.
func removeDecl(u *unit.Unit, decl ast.Decl) {
	decls := u.File.Decls[:0]
	for _, d := range u.File.Decls {
		if d != decl {
			decls = append(decls, d)
		}
	}
	u.File.Decls = decls

	u.RemoveComments(decl)
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Doc != nil {
			u.RemoveComments(d.Doc)
		}
	case *ast.GenDecl:
		if d.Doc != nil {
			u.RemoveComments(d.Doc)
		}
	}
}

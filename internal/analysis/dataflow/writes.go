package dataflow

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// write is one assignment to a variable.
type write struct {
	stmt ast.Node
	// rhs is the assigned expression, nil when the value cannot be named
	// (op-assign, inc/dec, range, tuple assignment)
	rhs ast.Expr
	// def marks the defining occurrence
	def bool
}

// declaration describes where a variable is introduced.
type declaration struct {
	ident *ast.Ident
	// node is the ValueSpec, AssignStmt or other node declaring the var
	node ast.Node
	init ast.Expr
	// hasInit is false for `var x T` without a value
	hasInit bool
	local   bool
}

// findDeclaration locates the defining identifier of v in f.
func findDeclaration(f *ast.File, info *types.Info, v *types.Var) (declaration, bool) {
	if v.Pos() < f.FileStart || v.Pos() > f.FileEnd {
		return declaration{}, false
	}
	path, _ := astutil.PathEnclosingInterval(f, v.Pos(), v.Pos())
	if len(path) < 2 {
		return declaration{}, false
	}
	id, ok := path[0].(*ast.Ident)
	if !ok || info.Defs[id] != v {
		return declaration{}, false
	}

	d := declaration{ident: id, node: path[1]}
	switch n := path[1].(type) {
	case *ast.ValueSpec:
		d.local = len(path) > 2 && !isFileLevel(path[2:])
		if len(n.Values) == 0 {
			return d, true
		}
		if len(n.Values) != len(n.Names) {
			return declaration{}, false
		}
		for i, name := range n.Names {
			if name == id {
				d.init = n.Values[i]
				d.hasInit = true
			}
		}
		return d, true
	case *ast.AssignStmt:
		if n.Tok != token.DEFINE || len(n.Lhs) != len(n.Rhs) {
			return declaration{}, false
		}
		for i, lhs := range n.Lhs {
			if lhs == ast.Expr(id) {
				d.init = n.Rhs[i]
				d.hasInit = true
			}
		}
		d.local = true
		return d, d.hasInit
	}
	// parameters, results, range and select variables
	return declaration{}, false
}

func isFileLevel(path []ast.Node) bool {
	for _, n := range path {
		switch n.(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			return false
		}
	}
	return true
}

// collectWrites returns every write to v in files, plus whether v has its
// address taken anywhere.
func collectWrites(files []*ast.File, info *types.Info, v *types.Var) ([]write, bool) {
	writes, escaped := allWrites(files, info)
	return writes[v], escaped[v]
}

// allWrites indexes the writes of every variable assigned in files.
func allWrites(files []*ast.File, info *types.Info) (map[*types.Var][]write, map[*types.Var]bool) {
	writes := make(map[*types.Var][]write)
	escaped := make(map[*types.Var]bool)

	varOf := func(e ast.Expr) *types.Var {
		id, ok := ast.Unparen(e).(*ast.Ident)
		if !ok {
			return nil
		}
		if v, ok := info.Uses[id].(*types.Var); ok {
			return v
		}
		v, _ := info.Defs[id].(*types.Var)
		return v
	}

	for _, f := range files {
		ast.Inspect(f, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.AssignStmt:
				for i, lhs := range x.Lhs {
					v := varOf(lhs)
					if v == nil {
						continue
					}
					w := write{stmt: x, def: x.Tok == token.DEFINE && info.Defs[lhs.(*ast.Ident)] == v}
					if (x.Tok == token.ASSIGN || x.Tok == token.DEFINE) && len(x.Lhs) == len(x.Rhs) {
						w.rhs = x.Rhs[i]
					}
					writes[v] = append(writes[v], w)
				}
			case *ast.ValueSpec:
				for i, name := range x.Names {
					v, ok := info.Defs[name].(*types.Var)
					if !ok {
						continue
					}
					w := write{stmt: x, def: true}
					switch {
					case len(x.Values) == len(x.Names):
						w.rhs = x.Values[i]
					case len(x.Values) == 0:
						// zero value, not a write
						continue
					}
					writes[v] = append(writes[v], w)
				}
			case *ast.IncDecStmt:
				if v := varOf(x.X); v != nil {
					writes[v] = append(writes[v], write{stmt: x})
				}
			case *ast.RangeStmt:
				for _, e := range []ast.Expr{x.Key, x.Value} {
					if e == nil {
						continue
					}
					if v := varOf(e); v != nil {
						writes[v] = append(writes[v], write{stmt: x, def: x.Tok == token.DEFINE})
					}
				}
			case *ast.UnaryExpr:
				if x.Op == token.AND {
					if v := varOf(x.X); v != nil {
						escaped[v] = true
					}
				}
			case *ast.SelectorExpr:
				// calling a pointer method on an addressable var takes its address
				v := varOf(x.X)
				if v == nil {
					break
				}
				if sel, ok := info.Selections[x]; ok && sel.Kind() == types.MethodVal {
					if sig, ok := sel.Obj().Type().(*types.Signature); ok && sig.Recv() != nil {
						if _, ptr := sig.Recv().Type().(*types.Pointer); ptr {
							if _, isPtr := v.Type().Underlying().(*types.Pointer); !isPtr {
								escaped[v] = true
							}
						}
					}
				}
			}
			return true
		})
	}
	return writes, escaped
}

// hasJumps reports whether the function body contains goto statements,
// which break the structural dominance argument.
func hasJumps(body ast.Node) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		if b, ok := n.(*ast.BranchStmt); ok && b.Tok == token.GOTO {
			found = true
		}
		return !found
	})
	return found
}

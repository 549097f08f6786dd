package simplify

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/flagsweep/internal/analysis/effects"
	"github.com/gnolang/flagsweep/internal/branch"
	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/unit"
)

// foldConditionals simplifies boolean expressions over true and false and
// replaces if statements with a literal condition by their live branch.
type foldConditionals struct{}

func (foldConditionals) Name() string { return "fold-constant-conditionals" }

func (foldConditionals) Run(u *unit.Unit) (bool, error) {
	info := u.Info()
	changed := simplifyExprs(info, u.File)

	ast.Inspect(u.File, func(n ast.Node) bool {
		if ifs, ok := n.(*ast.IfStmt); ok && foldElse(u, ifs) {
			changed = true
		}
		return true
	})

	if rewriteLists(u.File, func(list []ast.Stmt) ([]ast.Stmt, bool) {
		return foldList(u, list)
	}) {
		changed = true
	}
	return changed, nil
}

// simplifyExprs rewrites boolean expressions bottom-up.
func simplifyExprs(info *types.Info, root ast.Node) bool {
	changed := false
	astutil.Apply(root, nil, func(c *astutil.Cursor) bool {
		e, ok := c.Node().(ast.Expr)
		if !ok {
			return true
		}
		if r := simplifyExpr(info, e); r != nil {
			c.Replace(r)
			changed = true
		}
		return true
	})
	return changed
}

func simplifyExpr(info *types.Info, e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.ParenExpr:
		if b, ok := literal.IsBool(info, x.X); ok {
			return literal.Bool(b, x.Pos())
		}
	case *ast.UnaryExpr:
		if x.Op != token.NOT {
			return nil
		}
		if b, ok := literal.IsBool(info, x.X); ok {
			return literal.Bool(!b, x.Pos())
		}
	case *ast.BinaryExpr:
		return simplifyBinary(info, x)
	}
	return nil
}

func simplifyBinary(info *types.Info, x *ast.BinaryExpr) ast.Expr {
	lb, lok := literal.IsBool(info, x.X)
	rb, rok := literal.IsBool(info, x.Y)

	switch x.Op {
	case token.LAND:
		switch {
		case lok && !lb:
			return literal.Bool(false, x.Pos())
		case lok:
			return x.Y
		case rok && rb:
			return x.X
		case rok && effects.Pure(info, x.X):
			return literal.Bool(false, x.Pos())
		}
	case token.LOR:
		switch {
		case lok && lb:
			return literal.Bool(true, x.Pos())
		case lok:
			return x.Y
		case rok && !rb:
			return x.X
		case rok && effects.Pure(info, x.X):
			return literal.Bool(true, x.Pos())
		}
	case token.EQL, token.NEQ:
		if lok && rok {
			return literal.Bool((lb == rb) == (x.Op == token.EQL), x.Pos())
		}
		l, lok := x.X.(*ast.BasicLit)
		r, rok := x.Y.(*ast.BasicLit)
		if !lok || !rok || l.Kind != r.Kind {
			return nil
		}
		lv := constant.MakeFromLiteral(l.Value, l.Kind, 0)
		rv := constant.MakeFromLiteral(r.Value, r.Kind, 0)
		if lv.Kind() == constant.Unknown || rv.Kind() == constant.Unknown {
			return nil
		}
		return literal.Bool(constant.Compare(lv, x.Op, rv), x.Pos())
	}
	return nil
}

// foldElse collapses else-if arms whose condition is a literal.
func foldElse(u *unit.Unit, ifs *ast.IfStmt) bool {
	changed := false
	for {
		nested, ok := ifs.Else.(*ast.IfStmt)
		if !ok {
			break
		}
		cond, ok := literal.IsBool(u.Info(), nested.Cond)
		if !ok {
			break
		}
		changed = true

		live, dead := arms(nested, cond)
		if dead != nil {
			u.RemoveComments(dead)
		}
		stmts := inlined(nested, live)
		switch {
		case len(stmts) == 1:
			if next, ok := stmts[0].(*ast.IfStmt); ok {
				ifs.Else = next
				continue
			}
			if block, ok := stmts[0].(*ast.BlockStmt); ok {
				ifs.Else = block
				continue
			}
			ifs.Else = &ast.BlockStmt{Lbrace: nested.If, List: stmts, Rbrace: nested.End() - 1}
		case len(stmts) == 0:
			ifs.Else = nil
		default:
			ifs.Else = &ast.BlockStmt{Lbrace: nested.If, List: stmts, Rbrace: nested.End() - 1}
		}
	}

	if block, ok := ifs.Else.(*ast.BlockStmt); ok && len(block.List) == 0 {
		u.RemoveComments(block)
		ifs.Else = nil
		changed = true
	}
	return changed
}

// foldList replaces if statements with a literal condition by their live
// statements. Statements after a live branch that always leaves the block
// are unreachable and removed, unless one of them carries a label.
func foldList(u *unit.Unit, list []ast.Stmt) ([]ast.Stmt, bool) {
	info := u.Info()
	out := make([]ast.Stmt, 0, len(list))
	changed := false

	for i := 0; i < len(list); i++ {
		ifs, ok := list[i].(*ast.IfStmt)
		if !ok {
			out = append(out, list[i])
			continue
		}
		cond, ok := literal.IsBool(info, ifs.Cond)
		if !ok {
			out = append(out, list[i])
			continue
		}
		changed = true
		taken := branch.NewChain(info, ifs).Live(cond)

		live, dead := arms(ifs, cond)
		if dead != nil {
			u.RemoveComments(dead)
		}
		stmts, _ := foldList(u, inlined(ifs, live))
		out = append(out, stmts...)

		if len(stmts) == 0 {
			continue
		}
		// folding may have exposed a return the original arm hid
		deviates := taken.Deviates() || branch.StmtBranch(info, stmts[len(stmts)-1]).Deviates()
		rest := list[i+1:]
		if deviates && len(rest) > 0 && !hasLabels(rest) {
			dropComments(u, rest...)
			break
		}
	}
	return out, changed
}

// arms splits an if statement with a known condition into the statements
// that run and the node that never does.
func arms(ifs *ast.IfStmt, cond bool) (live []ast.Stmt, dead ast.Node) {
	if cond {
		if ifs.Else != nil {
			dead = ifs.Else
		}
		return ifs.Body.List, dead
	}
	switch e := ifs.Else.(type) {
	case *ast.BlockStmt:
		live = e.List
	case *ast.IfStmt:
		live = []ast.Stmt{e}
	}
	return live, ifs.Body
}

// inlined returns the statements replacing ifs. The init statement runs
// first. When the result declares names it stays wrapped in a block.
func inlined(ifs *ast.IfStmt, live []ast.Stmt) []ast.Stmt {
	var stmts []ast.Stmt
	if ifs.Init != nil {
		stmts = append(stmts, ifs.Init)
	}
	stmts = append(stmts, live...)
	if branch.HasDecls(stmts) {
		return []ast.Stmt{&ast.BlockStmt{Lbrace: ifs.If, List: stmts, Rbrace: ifs.End() - 1}}
	}
	return stmts
}

func hasLabels(stmts []ast.Stmt) bool {
	found := false
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			if _, ok := n.(*ast.LabeledStmt); ok {
				found = true
			}
			return !found
		})
	}
	return found
}

package eliminator

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/gnolang/flagsweep/internal/scope"
	"github.com/gnolang/flagsweep/internal/suppress"
	"github.com/gnolang/flagsweep/internal/unit"
)

// site holds the per-unit state shared by all call sites of one visit.
type site struct {
	u       *unit.Unit
	info    *types.Info
	tree    *scope.Tree
	keep    *suppress.Manager
	parents map[ast.Node]ast.Node
}

func parents(f *ast.File) map[ast.Node]ast.Node {
	m := make(map[ast.Node]ast.Node)
	var stack []ast.Node
	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		if len(stack) > 0 {
			m[n] = stack[len(stack)-1]
		}
		stack = append(stack, n)
		return true
	})
	return m
}

// parent returns the nearest ancestor of n that is not a parenthesis.
func (s *site) parent(n ast.Node) ast.Node {
	p := s.parents[n]
	for {
		paren, ok := p.(*ast.ParenExpr)
		if !ok {
			return p
		}
		p = s.parents[paren]
	}
}

// specHolder returns what must be deleted to remove spec: the whole
// declaration statement for a single local spec, the spec otherwise.
func (s *site) specHolder(spec *ast.ValueSpec) ast.Node {
	gd, ok := s.parents[spec].(*ast.GenDecl)
	if !ok {
		return spec
	}
	if ds, ok := s.parents[gd].(*ast.DeclStmt); ok && len(gd.Specs) == 1 {
		return ds
	}
	return spec
}

// removable reports whether the statement n can be deleted. The statement
// of a labeled statement has no list to be deleted from.
func (s *site) removable(n ast.Node) bool {
	_, labeled := s.parents[n].(*ast.LabeledStmt)
	return !labeled
}

// inlinable reports whether every use of v is a read inside the unit, so
// that v can be replaced by its value.
func (s *site) inlinable(v *types.Var) bool {
	if v.Parent() == v.Pkg().Scope() {
		if v.Exported() || s.u.Pkg.ReferencedExternally(v.Name()) {
			return false
		}
	}
	for _, id := range s.u.Uses(v) {
		if !s.u.Contains(id.Pos()) || s.isWrite(id) {
			return false
		}
	}
	return true
}

func (s *site) isWrite(id *ast.Ident) bool {
	switch p := s.parents[id].(type) {
	case *ast.AssignStmt:
		for _, l := range p.Lhs {
			if l == ast.Expr(id) {
				return true
			}
		}
	case *ast.IncDecStmt:
		return true
	case *ast.UnaryExpr:
		return p.Op == token.AND
	case *ast.RangeStmt:
		return p.Key == ast.Expr(id) || p.Value == ast.Expr(id)
	case *ast.ParenExpr:
		// (x) = v and &(x) are rare enough to refuse
		return true
	}
	return false
}

// inDeadArm reports whether id sits in the body of `if v != nil` or the
// else arm of `if v == nil`.
func (s *site) inDeadArm(id *ast.Ident, v *types.Var) bool {
	child := ast.Node(id)
	for p := s.parents[child]; p != nil; child, p = p, s.parents[p] {
		ifs, ok := p.(*ast.IfStmt)
		if !ok {
			continue
		}
		cmp, ok := ast.Unparen(ifs.Cond).(*ast.BinaryExpr)
		if !ok || !s.comparesNil(cmp, v) {
			continue
		}
		if cmp.Op == token.NEQ && child == ast.Node(ifs.Body) {
			return true
		}
		if cmp.Op == token.EQL && ifs.Else != nil && child == ast.Node(ifs.Else) {
			return true
		}
	}
	return false
}

func (s *site) comparesNil(cmp *ast.BinaryExpr, v *types.Var) bool {
	for _, side := range []ast.Expr{cmp.X, cmp.Y} {
		id, ok := ast.Unparen(side).(*ast.Ident)
		if ok && s.info.Uses[id] == v {
			got, ok := s.nilComparison(id)
			return ok && got == cmp
		}
	}
	return false
}

// nilComparison returns the `id == nil` or `id != nil` expression id is an
// operand of.
func (s *site) nilComparison(id *ast.Ident) (*ast.BinaryExpr, bool) {
	cmp, ok := s.parents[id].(*ast.BinaryExpr)
	if !ok || (cmp.Op != token.EQL && cmp.Op != token.NEQ) {
		return nil, false
	}
	other := cmp.Y
	if cmp.Y == ast.Expr(id) {
		other = cmp.X
	}
	nilIdent, ok := ast.Unparen(other).(*ast.Ident)
	if !ok {
		return nil, false
	}
	_, isNil := s.info.Uses[nilIdent].(*types.Nil)
	return cmp, isNil
}

package simplify

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/gnolang/flagsweep/internal/analysis/effects"
	"github.com/gnolang/flagsweep/internal/unit"
)

// unusedLocals removes function-local variables that are never read.
type unusedLocals struct {
	withSideEffects bool
}

func (unusedLocals) Name() string { return "remove-unused-locals" }

// reads counts, per variable, the uses that are not plain assignments.
func reads(info *types.Info, f *ast.File) map[*types.Var]int {
	writes := make(map[*ast.Ident]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.AssignStmt:
			if x.Tok != token.ASSIGN && x.Tok != token.DEFINE {
				break
			}
			for _, lhs := range x.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					writes[id] = true
				}
			}
		case *ast.RangeStmt:
			if x.Tok != token.ASSIGN {
				break
			}
			for _, e := range []ast.Expr{x.Key, x.Value} {
				if id, ok := e.(*ast.Ident); ok {
					writes[id] = true
				}
			}
		}
		return true
	})

	counts := make(map[*types.Var]int)
	for id, obj := range info.Uses {
		v, ok := obj.(*types.Var)
		if !ok || writes[id] {
			continue
		}
		counts[v]++
	}
	return counts
}

func namedResults(info *types.Info, f *ast.File) map[*types.Var]bool {
	results := make(map[*types.Var]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		ft, ok := n.(*ast.FuncType)
		if !ok || ft.Results == nil {
			return true
		}
		for _, field := range ft.Results.List {
			for _, name := range field.Names {
				if v, ok := info.Defs[name].(*types.Var); ok {
					results[v] = true
				}
			}
		}
		return true
	})
	return results
}

type localsRun struct {
	u      *unit.Unit
	info   *types.Info
	reads  map[*types.Var]int
	remove bool // drop side effects too
	// named results are read by bare returns
	results map[*types.Var]bool
}

func (p unusedLocals) Run(u *unit.Unit) (bool, error) {
	r := &localsRun{
		u:       u,
		info:    u.Info(),
		reads:   reads(u.Info(), u.File),
		remove:  p.withSideEffects,
		results: namedResults(u.Info(), u.File),
	}

	changed := rewriteLists(u.File, func(list []ast.Stmt) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		changed := false
		for _, s := range list {
			repl, ok := r.stmt(s)
			if !ok {
				out = append(out, s)
				continue
			}
			changed = true
			out = append(out, repl...)
		}
		return out, changed
	})

	ast.Inspect(u.File, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.IfStmt:
			changed = r.init(&x.Init) || changed
		case *ast.SwitchStmt:
			changed = r.init(&x.Init) || changed
		case *ast.TypeSwitchStmt:
			changed = r.init(&x.Init) || changed
			changed = r.typeSwitch(x) || changed
		case *ast.ForStmt:
			changed = r.init(&x.Init) || changed
			changed = r.post(x) || changed
		case *ast.CommClause:
			changed = r.comm(x) || changed
		case *ast.LabeledStmt:
			if a, ok := x.Stmt.(*ast.AssignStmt); ok {
				changed = r.blankUnused(a) || changed
			}
		case *ast.RangeStmt:
			changed = r.rangeVars(x) || changed
		}
		return true
	})
	return changed, nil
}

// unused reports whether id defines or names a local variable without
// reads.
func (r *localsRun) unused(id *ast.Ident) bool {
	if id.Name == "_" {
		return false
	}
	obj := r.info.Defs[id]
	if obj == nil {
		obj = r.info.Uses[id]
	}
	v, ok := obj.(*types.Var)
	if !ok || v.IsField() || v.Parent() == nil || v.Parent() == v.Pkg().Scope() || r.results[v] {
		return false
	}
	return r.reads[v] == 0
}

func (r *localsRun) init(slot *ast.Stmt) bool {
	if *slot == nil {
		return false
	}
	repl, ok := r.stmt(*slot)
	if !ok || len(repl) > 1 {
		return false
	}
	if len(repl) == 0 {
		*slot = nil
	} else {
		*slot = repl[0]
	}
	return true
}

// stmt returns the replacement of s, or false when s stays.
func (r *localsRun) stmt(s ast.Stmt) ([]ast.Stmt, bool) {
	switch x := s.(type) {
	case *ast.DeclStmt:
		return r.decl(x)
	case *ast.AssignStmt:
		return r.assign(x)
	}
	return nil, false
}

func (r *localsRun) decl(s *ast.DeclStmt) ([]ast.Stmt, bool) {
	gd, ok := s.Decl.(*ast.GenDecl)
	if !ok || gd.Tok != token.VAR {
		return nil, false
	}

	var kept []ast.Spec
	var residue []ast.Stmt
	for _, spec := range gd.Specs {
		vs := spec.(*ast.ValueSpec)
		if !r.allUnused(vs.Names) {
			kept = append(kept, spec)
			continue
		}
		if r.remove || r.pure(vs.Values) {
			r.u.RemoveComments(vs)
			continue
		}
		if len(gd.Specs) > 1 {
			kept = append(kept, spec)
			continue
		}
		residue = effectsOf(r.info, vs.Values)
	}

	if len(kept) == len(gd.Specs) {
		return nil, false
	}
	if len(kept) > 0 {
		gd.Specs = kept
		return []ast.Stmt{s}, true
	}
	dropComments(r.u, s)
	return residue, true
}

func (r *localsRun) assign(s *ast.AssignStmt) ([]ast.Stmt, bool) {
	if s.Tok != token.DEFINE && s.Tok != token.ASSIGN {
		return nil, false
	}

	blanks, unused := 0, 0
	for _, lhs := range s.Lhs {
		id, ok := lhs.(*ast.Ident)
		switch {
		case !ok:
		case id.Name == "_":
			blanks++
		case r.unused(id):
			unused++
		}
	}

	switch {
	case blanks == len(s.Lhs):
		// _ = <literal> is what is left of a replaced flag call
		for _, e := range s.Rhs {
			if !isLiteral(r.info, e) {
				return nil, false
			}
		}
		dropComments(r.u, s)
		return nil, true

	case blanks+unused == len(s.Lhs):
		dropComments(r.u, s)
		if r.remove || r.pure(s.Rhs) {
			return nil, true
		}
		return effectsOf(r.info, s.Rhs), true

	case unused > 0:
		// keep the statement, blank out the unused names
		fresh := 0
		for i, lhs := range s.Lhs {
			id, ok := lhs.(*ast.Ident)
			if !ok {
				continue
			}
			if r.unused(id) {
				s.Lhs[i] = blank(id.Pos())
				continue
			}
			if s.Tok == token.DEFINE && id.Name != "_" && r.info.Defs[id] != nil {
				fresh++
			}
		}
		if s.Tok == token.DEFINE && fresh == 0 {
			s.Tok = token.ASSIGN
		}
		return []ast.Stmt{s}, true
	}
	return nil, false
}

// post clears the writes of unused variables from a for statement's post
// statement.
func (r *localsRun) post(s *ast.ForStmt) bool {
	a, ok := s.Post.(*ast.AssignStmt)
	if !ok || a.Tok != token.ASSIGN || !r.blankUnused(a) {
		return false
	}
	if allBlank(a.Lhs) && (r.remove || r.pure(a.Rhs)) {
		dropComments(r.u, a)
		s.Post = nil
	}
	return true
}

// comm turns `case x = <-ch:` into `case <-ch:` once x is unused. The
// receive stays whatever the side effect option says.
func (r *localsRun) comm(c *ast.CommClause) bool {
	a, ok := c.Comm.(*ast.AssignStmt)
	if !ok || len(a.Rhs) != 1 || !r.blankUnused(a) {
		return false
	}
	if allBlank(a.Lhs) {
		c.Comm = &ast.ExprStmt{X: a.Rhs[0]}
	}
	return true
}

// blankUnused replaces the unused names assigned by a with _ and reports
// whether any name changed.
func (r *localsRun) blankUnused(a *ast.AssignStmt) bool {
	if a.Tok != token.ASSIGN && a.Tok != token.DEFINE {
		return false
	}
	changed, fresh := false, 0
	for i, lhs := range a.Lhs {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			continue
		}
		if r.unused(id) {
			a.Lhs[i] = blank(id.Pos())
			changed = true
			continue
		}
		if a.Tok == token.DEFINE && id.Name != "_" && r.info.Defs[id] != nil {
			fresh++
		}
	}
	if changed && a.Tok == token.DEFINE && fresh == 0 {
		a.Tok = token.ASSIGN
	}
	return changed
}

func allBlank(exprs []ast.Expr) bool {
	for _, e := range exprs {
		if !isBlank(e) {
			return false
		}
	}
	return true
}

func (r *localsRun) rangeVars(s *ast.RangeStmt) bool {
	if s.Tok != token.DEFINE {
		return false
	}
	changed := false
	if v, ok := s.Value.(*ast.Ident); ok && r.unused(v) {
		s.Value = nil
		changed = true
	}
	k, ok := s.Key.(*ast.Ident)
	if !ok || !r.unused(k) {
		return changed
	}
	if s.Value != nil {
		s.Key = blank(k.Pos())
		return true
	}
	s.Key = nil
	s.Tok = token.ILLEGAL
	return true
}

// typeSwitch drops the bound name of `switch x := v.(type)` when no
// clause reads x.
func (r *localsRun) typeSwitch(s *ast.TypeSwitchStmt) bool {
	assign, ok := s.Assign.(*ast.AssignStmt)
	if !ok || len(assign.Rhs) != 1 {
		return false
	}
	for _, clause := range s.Body.List {
		obj, ok := r.info.Implicits[clause].(*types.Var)
		if !ok {
			continue
		}
		if r.reads[obj] > 0 {
			return false
		}
	}
	s.Assign = &ast.ExprStmt{X: assign.Rhs[0]}
	return true
}

func (r *localsRun) allUnused(names []*ast.Ident) bool {
	for _, id := range names {
		if !r.unused(id) {
			return false
		}
	}
	return true
}

func (r *localsRun) pure(exprs []ast.Expr) bool {
	for _, e := range exprs {
		if !effects.Pure(r.info, e) {
			return false
		}
	}
	return true
}

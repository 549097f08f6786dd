// Package eliminator replaces feature flag evaluations whose key is proven
// to be a given constant by a literal value.
package eliminator

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/flagsweep/internal/analysis/dataflow"
	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/matcher"
	"github.com/gnolang/flagsweep/internal/scope"
	"github.com/gnolang/flagsweep/internal/simplify"
	"github.com/gnolang/flagsweep/internal/suppress"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/internal/unit"
)

const category = "feature-flag"

var (
	ErrNoPattern = errors.New("remove flag: call pattern is required")
	ErrNoValue   = errors.New("remove flag: replacement value is required")
)

type Options struct {
	Pattern  *matcher.Pattern
	Key      string
	Value    literal.Value
	Simplify simplify.Options
	Logger   *zap.Logger
}

// Eliminator rewrites one flag, identified by pattern and key, to a fixed
// value.
type Eliminator struct {
	opts Options
	key  constant.Value
}

func New(opts Options) (*Eliminator, error) {
	if opts.Pattern == nil {
		return nil, ErrNoPattern
	}
	if opts.Value.Constant() == nil {
		return nil, ErrNoValue
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Simplify.Logger == nil {
		opts.Simplify.Logger = opts.Logger
	}
	return &Eliminator{opts: opts, key: constant.MakeString(opts.Key)}, nil
}

func (e *Eliminator) Name() string { return tt.RuleRemoveFlag }

// edit is the set of changes planned for one call site.
type edit struct {
	replace map[ast.Node]ast.Expr
	remove  []ast.Node
	issue   tt.Issue
}

// Visit rewrites every matching call of u whose key is proven and returns
// one issue per rewritten call. All sites are resolved before the tree is
// touched. On change, the simplification pipeline is deferred on u.
func (e *Eliminator) Visit(u *unit.Unit) ([]tt.Issue, error) {
	s := &site{
		u:       u,
		info:    u.Info(),
		tree:    scope.Build(u.File),
		keep:    suppress.Parse(u.File, u.Fset()),
		parents: parents(u.File),
	}

	var edits []edit
	ast.Inspect(u.File, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || !e.opts.Pattern.Matches(s.info, call) {
			return true
		}
		ed, ok := e.plan(s, call)
		if !ok {
			return true
		}
		edits = append(edits, ed)
		return false
	})
	if len(edits) == 0 {
		return nil, nil
	}

	apply(u, edits)
	u.MarkChanged()
	u.Defer(simplify.New(e.opts.Simplify))

	issues := make([]tt.Issue, len(edits))
	for i, ed := range edits {
		issues[i] = ed.issue
	}
	e.opts.Logger.Info("feature flag removed",
		zap.String("file", u.Filename),
		zap.String("key", e.opts.Key),
		zap.Int("sites", len(edits)))
	return issues, nil
}

// plan decides how to rewrite call, or reports false to leave it alone.
func (e *Eliminator) plan(s *site, call *ast.CallExpr) (edit, bool) {
	log := e.opts.Logger.With(zap.Stringer("pos", s.u.Position(call.Pos())))

	key := e.opts.Pattern.KeyArgument(call)
	if key == nil {
		return edit{}, false
	}
	if s.keep.Kept(s.u.Position(call.Pos()), tt.RuleRemoveFlag) {
		log.Debug("call site kept by comment")
		return edit{}, false
	}
	if proof := dataflow.Resolve(s.tree.At(key), s.u, key); !proof.Equals(e.key) {
		log.Debug("flag key not proven", zap.Stringer("key", proof))
		return edit{}, false
	}

	sig, ok := matcher.Callee(s.info, call).Type().(*types.Signature)
	if !ok || sig.Results().Len() == 0 {
		return edit{}, false
	}
	result := sig.Results().At(0).Type()
	if _, err := e.opts.Value.Expr(result, call.Pos()); err != nil {
		log.Debug("result type does not fit the value", zap.Error(err))
		return edit{}, false
	}

	ed := edit{
		replace: make(map[ast.Node]ast.Expr),
		issue:   e.issue(s.u, call),
	}

	switch sig.Results().Len() {
	case 1:
	case 2:
		if !isError(sig.Results().At(1).Type()) || !e.planTuple(s, call, result, &ed) {
			log.Debug("two-result call outside a v, err := declaration")
			return edit{}, false
		}
		return ed, true
	default:
		return edit{}, false
	}

	switch p := s.parent(call).(type) {
	case *ast.GoStmt, *ast.DeferStmt:
		return edit{}, false
	case *ast.ExprStmt:
		if !s.removable(p) {
			log.Debug("labeled statement call left alone")
			return edit{}, false
		}
		ed.remove = append(ed.remove, p)
		ed.issue.Note = "statement removed"
		return ed, true
	case *ast.AssignStmt:
		if p.Tok == token.DEFINE && len(p.Lhs) == 1 && len(p.Rhs) == 1 {
			if e.planDecl(s, p.Lhs[0].(*ast.Ident), p, result, &ed) {
				return ed, true
			}
		}
	case *ast.ValueSpec:
		if len(p.Names) == 1 && len(p.Values) == 1 {
			if e.planDecl(s, p.Names[0], s.specHolder(p), result, &ed) {
				return ed, true
			}
		}
	}

	lit, _ := e.opts.Value.Expr(result, call.Pos())
	ed.replace[call] = lit
	return ed, true
}

// planDecl inlines a variable initialized by the flag call into all of its
// reads and removes the declaration.
func (e *Eliminator) planDecl(s *site, name *ast.Ident, decl ast.Node, result types.Type, ed *edit) bool {
	v, ok := s.info.Defs[name].(*types.Var)
	if !ok || !types.Identical(v.Type(), result) || !s.inlinable(v) || !s.removable(decl) {
		return false
	}
	uses := s.u.Uses(v)
	for _, id := range uses {
		lit, err := e.opts.Value.Expr(result, id.Pos())
		if err != nil {
			return false
		}
		ed.replace[id] = lit
	}
	ed.remove = append(ed.remove, decl)
	ed.issue.Note = fmt.Sprintf("%s inlined into %d reads", name.Name, len(uses))
	return true
}

// planTuple handles `v, err := call(...)`. The error of a resolved flag is
// always nil, so err may only be compared against nil.
func (e *Eliminator) planTuple(s *site, call *ast.CallExpr, result types.Type, ed *edit) bool {
	var lhs []*ast.Ident
	var decl ast.Node
	switch p := s.parent(call).(type) {
	case *ast.AssignStmt:
		if p.Tok != token.DEFINE || len(p.Lhs) != 2 || len(p.Rhs) != 1 {
			return false
		}
		for _, l := range p.Lhs {
			id, ok := l.(*ast.Ident)
			if !ok {
				return false
			}
			lhs = append(lhs, id)
		}
		decl = p
	case *ast.ValueSpec:
		if len(p.Names) != 2 || len(p.Values) != 1 {
			return false
		}
		lhs = p.Names
		decl = s.specHolder(p)
	default:
		return false
	}
	if _, pkgLevel := decl.(*ast.ValueSpec); pkgLevel || !s.removable(decl) {
		return false
	}

	if lhs[0].Name != "_" {
		v, ok := s.info.Defs[lhs[0]].(*types.Var)
		if !ok || !types.Identical(v.Type(), result) || !s.inlinable(v) {
			return false
		}
		for _, id := range s.u.Uses(v) {
			lit, err := e.opts.Value.Expr(result, id.Pos())
			if err != nil {
				return false
			}
			ed.replace[id] = lit
		}
	}
	if lhs[1].Name != "_" {
		errVar, ok := s.info.Defs[lhs[1]].(*types.Var)
		if !ok {
			return false
		}
		for _, id := range s.u.Uses(errVar) {
			if cmp, ok := s.nilComparison(id); ok {
				ed.replace[cmp] = literal.Bool(cmp.Op == token.EQL, cmp.Pos())
				continue
			}
			// `return err` under `if err != nil` goes away with the branch
			if !s.u.Contains(id.Pos()) || !s.inDeadArm(id, errVar) {
				return false
			}
		}
	}

	ed.remove = append(ed.remove, decl)
	ed.issue.Note = "value and error inlined"
	return true
}

func (e *Eliminator) issue(u *unit.Unit, call *ast.CallExpr) tt.Issue {
	return tt.Issue{
		Rule:       tt.RuleRemoveFlag,
		Category:   category,
		Filename:   u.Filename,
		Message:    fmt.Sprintf("feature flag %q replaced by %s", e.opts.Key, e.opts.Value),
		Suggestion: e.opts.Value.String(),
		Start:      u.Position(call.Pos()),
		End:        u.Position(call.End()),
		Severity:   tt.SeverityInfo,
	}
}

// apply performs the planned edits in one traversal.
func apply(u *unit.Unit, edits []edit) {
	replace := make(map[ast.Node]ast.Expr)
	remove := make(map[ast.Node]bool)
	for _, ed := range edits {
		for n, r := range ed.replace {
			replace[n] = r
		}
		for _, n := range ed.remove {
			remove[n] = true
		}
	}

	astutil.Apply(u.File, func(c *astutil.Cursor) bool {
		n := c.Node()
		if remove[n] && c.Index() >= 0 {
			dropComments(u, n)
			c.Delete()
			return false
		}
		if r, ok := replace[n]; ok {
			c.Replace(literal.Operand(r, c.Parent()))
			return false
		}
		return true
	}, nil)

	// init statements are not in a list
	ast.Inspect(u.File, func(n ast.Node) bool {
		var slot *ast.Stmt
		switch x := n.(type) {
		case *ast.IfStmt:
			slot = &x.Init
		case *ast.SwitchStmt:
			slot = &x.Init
		case *ast.TypeSwitchStmt:
			slot = &x.Init
		case *ast.ForStmt:
			slot = &x.Init
		}
		if slot != nil && *slot != nil && remove[*slot] {
			dropComments(u, *slot)
			*slot = nil
		}
		return true
	})

	decls := u.File.Decls[:0]
	for _, d := range u.File.Decls {
		if gd, ok := d.(*ast.GenDecl); ok && len(gd.Specs) == 0 {
			dropComments(u, gd)
			continue
		}
		decls = append(decls, d)
	}
	u.File.Decls = decls
}

func dropComments(u *unit.Unit, n ast.Node) {
	u.RemoveComments(n)
	switch x := n.(type) {
	case *ast.ValueSpec:
		if x.Doc != nil {
			u.RemoveComments(x.Doc)
		}
	case *ast.GenDecl:
		if x.Doc != nil {
			u.RemoveComments(x.Doc)
		}
	}
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

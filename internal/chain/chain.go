// Package chain merges repeated calls of a fluent builder chain into one
// variadic call.
//
//	builder().mark("a").mark("b").mark("c").build()
//	builder().markAll("a", "b", "c").build()
package chain

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/internal/matcher"
	"github.com/gnolang/flagsweep/internal/suppress"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/internal/unit"
)

// Keep selects which target link survives the merge.
type Keep int

const (
	// KeepFirst keeps the target closest to the chain root.
	KeepFirst Keep = iota
	// KeepLast keeps the target closest to the terminal call.
	KeepLast
)

var ErrUnknownKeep = errors.New("unknown keep position")

func ParseKeep(s string) (Keep, error) {
	switch s {
	case "", "first":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	}
	return KeepFirst, fmt.Errorf("%w: %q", ErrUnknownKeep, s)
}

func (k Keep) String() string {
	if k == KeepLast {
		return "last"
	}
	return "first"
}

type Options struct {
	// Terminal is the call ending the chain, e.g. Build().
	Terminal *matcher.Pattern
	// Link matches pass-through calls. Nil accepts any method call.
	Link *matcher.Pattern
	// Target matches the repeated calls to merge.
	Target *matcher.Pattern
	// MergedName renames the surviving call. Empty keeps the target name.
	MergedName string
	Keep       Keep
	Logger     *zap.Logger
}

var ErrIncomplete = errors.New("merge chain: terminal and target patterns are required")

type Merger struct {
	opts Options
}

func New(opts Options) (*Merger, error) {
	if opts.Terminal == nil || opts.Target == nil {
		return nil, ErrIncomplete
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Merger{opts: opts}, nil
}

func (m *Merger) Name() string { return tt.RuleMergeChain }

// link is one call of a chain.
type link struct {
	call   *ast.CallExpr
	sel    *ast.SelectorExpr
	target bool
}

// Visit merges every chain of u ending in a terminal call.
func (m *Merger) Visit(u *unit.Unit) ([]tt.Issue, error) {
	info := u.Info()
	keep := suppress.Parse(u.File, u.Fset())

	var terminals []*ast.CallExpr
	ast.Inspect(u.File, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok && m.opts.Terminal.Matches(info, call) {
			terminals = append(terminals, call)
		}
		return true
	})

	var issues []tt.Issue
	for _, terminal := range terminals {
		pos := u.Position(terminal.Pos())
		if keep.Kept(pos, tt.RuleMergeChain) {
			continue
		}
		n, ok := m.merge(info, terminal)
		if !ok {
			continue
		}
		issues = append(issues, tt.Issue{
			Rule:     tt.RuleMergeChain,
			Category: "fluent-chain",
			Filename: u.Filename,
			Message:  fmt.Sprintf("merged %d chained calls into one", n),
			Start:    pos,
			End:      u.Position(terminal.End()),
			Severity: tt.SeverityInfo,
		})
	}
	if len(issues) > 0 {
		u.MarkChanged()
		m.opts.Logger.Debug("chains merged", zap.String("file", u.Filename), zap.Int("chains", len(issues)))
	}
	return issues, nil
}

// collect walks from the terminal toward the chain root and returns the
// links in source order, root side first.
func (m *Merger) collect(info *types.Info, terminal *ast.CallExpr) (links []link, root ast.Expr, ok bool) {
	sel, ok := ast.Unparen(terminal.Fun).(*ast.SelectorExpr)
	if !ok {
		return nil, nil, false
	}
	x := sel.X
	for {
		call, isCall := ast.Unparen(x).(*ast.CallExpr)
		if !isCall {
			break
		}
		csel, isSel := ast.Unparen(call.Fun).(*ast.SelectorExpr)
		if !isSel {
			break
		}
		target := m.opts.Target.Matches(info, call)
		if !target && m.opts.Link != nil && !m.opts.Link.Matches(info, call) {
			break
		}
		if !target && m.opts.Link == nil {
			if _, method := info.Selections[csel]; !method {
				break
			}
		}
		links = append(links, link{call: call, sel: csel, target: target})
		x = csel.X
	}

	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	return links, x, true
}

// merge rewrites the chain ending in terminal and reports how many target
// links were merged.
func (m *Merger) merge(info *types.Info, terminal *ast.CallExpr) (int, bool) {
	links, root, ok := m.collect(info, terminal)
	if !ok {
		return 0, false
	}

	var args []ast.Expr
	kept := -1
	targets := 0
	for i, l := range links {
		if !l.target {
			continue
		}
		if l.call.Ellipsis.IsValid() {
			return 0, false
		}
		targets++
		args = append(args, l.call.Args...)
		if kept < 0 || m.opts.Keep == KeepLast {
			kept = i
		}
	}
	if targets < 2 {
		return 0, false
	}

	name := links[kept].sel.Sel.Name
	if m.opts.MergedName != "" {
		name = m.opts.MergedName
	}
	elem, ok := variadicElem(info, links[kept].sel, name)
	if !ok {
		m.opts.Logger.Debug("merged method does not take a single variadic parameter", zap.String("method", name))
		return 0, false
	}
	for _, arg := range args {
		if t := info.TypeOf(arg); t == nil || !types.AssignableTo(t, elem) {
			m.opts.Logger.Debug("argument does not fit the merged method",
				zap.String("method", name), zap.Stringer("type", elem))
			return 0, false
		}
	}

	expr := root
	for i, l := range links {
		switch {
		case i == kept:
			expr = &ast.CallExpr{
				Fun: &ast.SelectorExpr{
					X:   expr,
					Sel: &ast.Ident{NamePos: l.sel.Sel.NamePos, Name: name},
				},
				Lparen: l.call.Lparen,
				Args:   args,
				// a position after the last argument would make the printer
				// break the line and add a trailing comma
				Rparen: token.NoPos,
			}
		case l.target:
			continue
		default:
			expr = &ast.CallExpr{
				Fun:      &ast.SelectorExpr{X: expr, Sel: l.sel.Sel},
				Lparen:   l.call.Lparen,
				Args:     l.call.Args,
				Ellipsis: l.call.Ellipsis,
				Rparen:   l.call.Rparen,
			}
		}
	}

	ast.Unparen(terminal.Fun).(*ast.SelectorExpr).X = expr
	return targets, true
}

// variadicElem returns the element type of method name on the receiver
// of sel when its only parameter is variadic.
func variadicElem(info *types.Info, sel *ast.SelectorExpr, name string) (types.Type, bool) {
	recv := info.TypeOf(sel.X)
	if recv == nil {
		return nil, false
	}
	var pkg *types.Package
	if s, ok := info.Selections[sel]; ok {
		pkg = s.Obj().Pkg()
	}
	obj, _, _ := types.LookupFieldOrMethod(recv, true, pkg, name)
	fn, ok := obj.(*types.Func)
	if !ok {
		return nil, false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || !sig.Variadic() || sig.Params().Len() != 1 {
		return nil, false
	}
	slice, ok := sig.Params().At(0).Type().(*types.Slice)
	if !ok {
		return nil, false
	}
	return slice.Elem(), true
}

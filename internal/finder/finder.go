// Package finder reports feature flag call sites without rewriting them.
package finder

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/types"
	"sort"

	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/internal/analysis/dataflow"
	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/matcher"
	"github.com/gnolang/flagsweep/internal/scope"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/internal/unit"
)

// Marker is inserted in front of every tagged call by Annotate.
const Marker = "/*~~>*/"

var ErrNoPattern = errors.New("find flag: at least one call pattern is required")

type Options struct {
	Patterns []*matcher.Pattern
	// Key restricts findings to calls whose key may be Key. Empty finds
	// every key.
	Key string
	// Kind restricts findings to calls returning this kind of value.
	Kind   literal.Kind
	Logger *zap.Logger
}

type Finder struct {
	opts Options
}

func New(opts Options) (*Finder, error) {
	if len(opts.Patterns) == 0 {
		return nil, ErrNoPattern
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Finder{opts: opts}, nil
}

func (f *Finder) Name() string { return tt.RuleFindFlag }

// Visit reports the matching calls of u in source order.
func (f *Finder) Visit(u *unit.Unit) ([]tt.Issue, error) {
	info := u.Info()

	var (
		flow  *dataflow.Flow
		tree  *scope.Tree
		found []tt.Issue
	)
	analyze := func() *dataflow.Flow {
		if flow == nil {
			flow = dataflow.Analyze(u)
		}
		return flow
	}
	ast.Inspect(u.File, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		p := f.match(info, call)
		if p == nil {
			return true
		}
		arg := p.KeyArgument(call)
		if f.opts.Key != "" {
			if arg == nil {
				return true
			}
			if !analyze().MayEqual(arg, constant.MakeString(f.opts.Key)) {
				return true
			}
		}

		if tree == nil {
			tree = scope.Build(u.File)
		}
		found = append(found, f.issue(u, tree, analyze, call, arg))
		return true
	})

	f.opts.Logger.Debug("flags found", zap.String("file", u.Filename), zap.Int("count", len(found)))
	return found, nil
}

func (f *Finder) match(info *types.Info, call *ast.CallExpr) *matcher.Pattern {
	for _, p := range f.opts.Patterns {
		if !p.Matches(info, call) {
			continue
		}
		if f.opts.Kind != literal.KindAny {
			result, _ := matcher.Result(info, call)
			if kind, ok := literal.KindOf(result); !ok || kind != f.opts.Kind {
				continue
			}
		}
		return p
	}
	return nil
}

// issue names the key when it is proven, or when every constant reaching
// the key argument is the same.
func (f *Finder) issue(u *unit.Unit, tree *scope.Tree, analyze func() *dataflow.Flow, call *ast.CallExpr, arg ast.Expr) tt.Issue {
	var msg string
	if arg != nil {
		v := dataflow.Resolve(tree.At(arg), u, arg).Value()
		if v == nil {
			v, _ = analyze().Eval(arg).Single()
		}
		if v != nil && v.Kind() == constant.String {
			msg = fmt.Sprintf("feature flag %q", constant.StringVal(v))
		}
	}
	switch {
	case msg != "":
	case f.opts.Key != "":
		msg = fmt.Sprintf("feature flag call that may read %q", f.opts.Key)
	default:
		msg = "feature flag call"
	}
	return tt.Issue{
		Rule:     tt.RuleFindFlag,
		Category: "feature-flag",
		Filename: u.Filename,
		Message:  msg,
		Start:    u.Position(call.Pos()),
		End:      u.Position(call.End()),
		Severity: tt.SeverityInfo,
	}
}

// Annotate inserts Marker in front of every issue's start offset. Calls
// already carrying a marker are left alone, so annotating twice is the
// same as annotating once.
func Annotate(src []byte, issues []tt.Issue) []byte {
	offsets := make([]int, 0, len(issues))
	seen := make(map[int]bool)
	for _, issue := range issues {
		off := issue.Start.Offset
		if off < 0 || off > len(src) || seen[off] {
			continue
		}
		seen[off] = true
		offsets = append(offsets, off)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))

	out := append([]byte(nil), src...)
	for _, off := range offsets {
		if bytes.HasSuffix(out[:off], []byte(Marker)) {
			continue
		}
		out = append(out[:off], append([]byte(Marker), out[off:]...)...)
	}
	return out
}

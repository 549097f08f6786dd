// Package defaults changes the default value passed to feature flag
// evaluations of a given key.
//
//	client.BoolVariation("new-checkout", ctx, false)
//	client.BoolVariation("new-checkout", ctx, true)
package defaults

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/types"

	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/internal/analysis/dataflow"
	"github.com/gnolang/flagsweep/internal/analysis/effects"
	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/matcher"
	"github.com/gnolang/flagsweep/internal/scope"
	"github.com/gnolang/flagsweep/internal/suppress"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/internal/unit"
)

var (
	ErrNoPattern = errors.New("change default: call pattern is required")
	ErrNoValue   = errors.New("change default: default value is required")
)

type Options struct {
	// Pattern matches the evaluation calls. The default is their last
	// argument.
	Pattern *matcher.Pattern
	Key     string
	Value   literal.Value
	Logger  *zap.Logger
}

// Changer rewrites the last argument of matching calls whose key is proven
// to be Key.
type Changer struct {
	opts Options
	key  constant.Value
}

func New(opts Options) (*Changer, error) {
	if opts.Pattern == nil {
		return nil, ErrNoPattern
	}
	if opts.Value.Constant() == nil {
		return nil, ErrNoValue
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Changer{opts: opts, key: constant.MakeString(opts.Key)}, nil
}

func (c *Changer) Name() string { return tt.RuleChangeDefault }

// Visit changes the defaults of u and reports one issue per changed call.
// Calls already passing the value are left alone.
func (c *Changer) Visit(u *unit.Unit) ([]tt.Issue, error) {
	info := u.Info()
	keep := suppress.Parse(u.File, u.Fset())

	var (
		tree   *scope.Tree
		calls  []*ast.CallExpr
		values []ast.Expr
		issues []tt.Issue
	)
	ast.Inspect(u.File, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) < 2 || call.Ellipsis.IsValid() || !c.opts.Pattern.Matches(info, call) {
			return true
		}
		key := c.opts.Pattern.KeyArgument(call)
		last := call.Args[len(call.Args)-1]
		if key == nil || key == last {
			return true
		}
		pos := u.Position(call.Pos())
		if keep.Kept(pos, tt.RuleChangeDefault) {
			return true
		}
		if tree == nil {
			tree = scope.Build(u.File)
		}
		log := c.opts.Logger.With(zap.Stringer("pos", pos))
		if proof := dataflow.Resolve(tree.At(key), u, key); !proof.Equals(c.key) {
			log.Debug("flag key not proven", zap.Stringer("key", proof))
			return true
		}
		if dataflow.Resolve(tree.At(last), u, last).Equals(c.opts.Value.Constant()) {
			return true
		}
		if !effects.Pure(info, last) {
			log.Debug("default has side effects")
			return true
		}
		param, ok := lastParam(info, call)
		if !ok {
			log.Debug("default is not the last parameter")
			return true
		}
		lit, err := c.opts.Value.Expr(param, last.Pos())
		if err != nil {
			log.Debug("default parameter does not fit the value", zap.Error(err))
			return true
		}

		calls = append(calls, call)
		values = append(values, lit)
		issues = append(issues, tt.Issue{
			Rule:       tt.RuleChangeDefault,
			Category:   "feature-flag",
			Filename:   u.Filename,
			Message:    fmt.Sprintf("default of feature flag %q changed to %s", c.opts.Key, c.opts.Value),
			Suggestion: c.opts.Value.String(),
			Start:      pos,
			End:        u.Position(call.End()),
			Severity:   tt.SeverityInfo,
		})
		return true
	})
	if len(calls) == 0 {
		return nil, nil
	}

	for i, call := range calls {
		call.Args[len(call.Args)-1] = values[i]
	}
	u.MarkChanged()
	c.opts.Logger.Info("feature flag defaults changed",
		zap.String("file", u.Filename),
		zap.String("key", c.opts.Key),
		zap.Int("sites", len(calls)))
	return issues, nil
}

// lastParam returns the type of the parameter receiving the last argument
// of call. Variadic callees have no fixed last parameter.
func lastParam(info *types.Info, call *ast.CallExpr) (types.Type, bool) {
	fn := matcher.Callee(info, call)
	if fn == nil {
		return nil, false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Variadic() || sig.Params().Len() != len(call.Args) {
		return nil, false
	}
	return sig.Params().At(sig.Params().Len() - 1).Type(), true
}

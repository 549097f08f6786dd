// Package simplify removes code made dead by flag elimination.
//
// The passes run in a fixed order and are repeated until a round changes
// nothing or the round limit is hit.
package simplify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/internal/unit"
)

const DefaultMaxRounds = 3

type Options struct {
	// MaxRounds bounds the fixpoint loop. Zero means DefaultMaxRounds.
	MaxRounds int
	// WithSideEffects removes unused variables even when their initializer
	// has side effects, dropping the effect.
	WithSideEffects bool
	Logger          *zap.Logger
}

// Pipeline is the deferred pass that drives all simplification passes.
type Pipeline struct {
	opts   Options
	passes []unit.Pass

	rounds     int
	capReached bool
}

func New(opts Options) *Pipeline {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{
		opts: opts,
		passes: []unit.Pass{
			foldConditionals{},
			unusedLocals{withSideEffects: opts.WithSideEffects},
			unusedDecls{withSideEffects: opts.WithSideEffects},
			unusedFuncs{},
			unusedImports{},
		},
	}
}

func (p *Pipeline) Name() string { return "simplify" }

// Rounds is the number of rounds the last Run performed.
func (p *Pipeline) Rounds() int { return p.rounds }

// CapReached reports whether the last Run stopped at MaxRounds while the
// final round still changed the unit.
func (p *Pipeline) CapReached() bool { return p.capReached }

func (p *Pipeline) Run(u *unit.Unit) (bool, error) {
	p.rounds, p.capReached = 0, false

	changed := false
	for p.rounds < p.opts.MaxRounds {
		p.rounds++
		round := false
		for _, pass := range p.passes {
			u.Recheck()
			ok, err := pass.Run(u)
			if err != nil {
				return changed, fmt.Errorf("%s: %w", pass.Name(), err)
			}
			if !ok {
				continue
			}
			u.MarkChanged()
			round = true
			p.opts.Logger.Debug("simplification pass changed unit",
				zap.String("pass", pass.Name()),
				zap.String("file", u.Filename),
				zap.Int("round", p.rounds))
		}
		if !round {
			return changed, nil
		}
		changed = true
	}

	p.capReached = true
	p.opts.Logger.Info("simplification stopped before reaching a fixpoint",
		zap.String("file", u.Filename),
		zap.Int("max_rounds", p.opts.MaxRounds))
	return changed, nil
}

package sweep

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/internal/chain"
	"github.com/gnolang/flagsweep/internal/defaults"
	"github.com/gnolang/flagsweep/internal/eliminator"
	"github.com/gnolang/flagsweep/internal/finder"
	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/matcher"
	"github.com/gnolang/flagsweep/internal/preset"
	"github.com/gnolang/flagsweep/internal/simplify"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/internal/unit"
)

const (
	RecipeRemoveFlag    = "remove-flag"
	RecipeFindFlag      = "find-flag"
	RecipeMergeChain    = "merge-chain"
	RecipeChangeDefault = "change-default"
)

var (
	ErrUnknownRecipe = errors.New("unknown recipe")
	ErrMissingOption = errors.New("missing recipe option")
)

// Recipe visits one unit and reports what it found or rewrote. Rewriting
// recipes may defer further passes on the unit.
type Recipe interface {
	Name() string
	Visit(u *unit.Unit) ([]tt.Issue, error)
}

// BuildRecipes turns the configured recipes into runnable ones. modules
// maps module paths to versions and selects vendor presets.
func BuildRecipes(config Config, modules map[string]string, logger *zap.Logger) ([]Recipe, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	simplifyOpts := simplify.Options{
		MaxRounds:       config.MaxRounds,
		WithSideEffects: config.WithSideEffects,
		Logger:          logger,
	}

	var recipes []Recipe
	for i, rc := range config.Recipes {
		built, err := rc.build(modules, simplifyOpts, logger)
		if err != nil {
			return nil, fmt.Errorf("recipe %d (%s): %w", i, rc.Type, err)
		}
		recipes = append(recipes, built...)
	}
	return recipes, nil
}

func (rc RecipeConfig) build(modules map[string]string, opts simplify.Options, logger *zap.Logger) ([]Recipe, error) {
	switch rc.Type {
	case RecipeRemoveFlag:
		return rc.removeFlag(modules, opts, logger)
	case RecipeFindFlag:
		return rc.findFlag(modules, logger)
	case RecipeMergeChain:
		return rc.mergeChain(logger)
	case RecipeChangeDefault:
		return rc.changeDefault(modules, logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRecipe, rc.Type)
}

// patterns returns the explicit patterns plus those of the preset.
func (rc RecipeConfig) patterns(modules map[string]string, kind literal.Kind) ([]*matcher.Pattern, error) {
	var out []*matcher.Pattern
	for _, s := range rc.Patterns {
		p, err := matcher.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rc.Preset != "" {
		p, err := preset.Detect(rc.Preset, modules)
		if err != nil {
			return nil, err
		}
		fromPreset, err := p.Patterns(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, fromPreset...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: patterns or preset", ErrMissingOption)
	}
	return out, nil
}

// keyedValue parses the key, kind and value shared by the recipes that
// rewrite one flag.
func (rc RecipeConfig) keyedValue(modules map[string]string) (literal.Value, []*matcher.Pattern, error) {
	if rc.Key == "" {
		return literal.Value{}, nil, fmt.Errorf("%w: key", ErrMissingOption)
	}
	kind, err := literal.ParseKind(rc.Kind)
	if err != nil {
		return literal.Value{}, nil, err
	}
	if kind == literal.KindAny {
		return literal.Value{}, nil, fmt.Errorf("%w: kind", ErrMissingOption)
	}
	value, err := literal.Parse(kind, rc.Value)
	if err != nil {
		return literal.Value{}, nil, err
	}
	patterns, err := rc.patterns(modules, kind)
	if err != nil {
		return literal.Value{}, nil, err
	}
	return value, patterns, nil
}

func (rc RecipeConfig) removeFlag(modules map[string]string, opts simplify.Options, logger *zap.Logger) ([]Recipe, error) {
	value, patterns, err := rc.keyedValue(modules)
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(patterns))
	for _, p := range patterns {
		e, err := eliminator.New(eliminator.Options{
			Pattern:  p,
			Key:      rc.Key,
			Value:    value,
			Simplify: opts,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, e)
	}
	return recipes, nil
}

func (rc RecipeConfig) changeDefault(modules map[string]string, logger *zap.Logger) ([]Recipe, error) {
	value, patterns, err := rc.keyedValue(modules)
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(patterns))
	for _, p := range patterns {
		c, err := defaults.New(defaults.Options{
			Pattern: p,
			Key:     rc.Key,
			Value:   value,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, c)
	}
	return recipes, nil
}

func (rc RecipeConfig) findFlag(modules map[string]string, logger *zap.Logger) ([]Recipe, error) {
	kind, err := literal.ParseKind(rc.Kind)
	if err != nil {
		return nil, err
	}
	patterns, err := rc.patterns(modules, literal.KindAny)
	if err != nil {
		return nil, err
	}
	f, err := finder.New(finder.Options{
		Patterns: patterns,
		Key:      rc.Key,
		Kind:     kind,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return []Recipe{f}, nil
}

func (rc RecipeConfig) mergeChain(logger *zap.Logger) ([]Recipe, error) {
	if rc.Terminal == "" || rc.Target == "" {
		return nil, fmt.Errorf("%w: terminal and target", ErrMissingOption)
	}
	opts := chain.Options{MergedName: rc.MergedName, Logger: logger}

	var err error
	if opts.Terminal, err = matcher.Parse(rc.Terminal); err != nil {
		return nil, err
	}
	if opts.Target, err = matcher.Parse(rc.Target); err != nil {
		return nil, err
	}
	if rc.Link != "" {
		if opts.Link, err = matcher.Parse(rc.Link); err != nil {
			return nil, err
		}
	}
	if opts.Keep, err = chain.ParseKeep(rc.Keep); err != nil {
		return nil, err
	}

	m, err := chain.New(opts)
	if err != nil {
		return nil, err
	}
	return []Recipe{m}, nil
}

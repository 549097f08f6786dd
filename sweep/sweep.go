// Package sweep runs feature flag recipes over Go packages.
package sweep

import (
	"context"
	"fmt"
	"go/ast"
	"io"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/internal/unit"
)

// Result is the outcome of running the recipes over one file.
type Result struct {
	Filename string
	Original []byte
	// Rewritten is nil when no recipe changed the file.
	Rewritten []byte
	Issues    []tt.Issue
}

func (r Result) Changed() bool { return r.Rewritten != nil }

// Engine applies a fixed list of recipes to every unit it is given.
type Engine struct {
	recipes  []Recipe
	logger   *zap.Logger
	progress io.Writer
}

// New returns an engine running recipes in order. Progress is drawn to
// progress; nil disables the bar.
func New(recipes []Recipe, logger *zap.Logger, progress io.Writer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Engine{recipes: recipes, logger: logger, progress: progress}
}

// ProcessUnit runs every recipe over u. The passes a recipe defers run
// before the next recipe starts.
func (e *Engine) ProcessUnit(u *unit.Unit) ([]tt.Issue, error) {
	var issues []tt.Issue
	for _, r := range e.recipes {
		found, err := r.Visit(u)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", u.Filename, r.Name(), err)
		}
		issues = append(issues, found...)
		if err := u.Drain(e.logger); err != nil {
			return nil, fmt.Errorf("%s: %w", u.Filename, err)
		}
	}
	return issues, nil
}

// ProcessPackage processes the files of pkg one after the other; they
// share type information.
func (e *Engine) ProcessPackage(pkg *unit.Package) ([]Result, error) {
	var results []Result
	for _, u := range pkg.Units() {
		if ast.IsGenerated(u.File) {
			e.logger.Debug("skipping generated file", zap.String("file", u.Filename))
			continue
		}
		issues, err := e.ProcessUnit(u)
		if err != nil {
			return nil, err
		}
		r := Result{Filename: u.Filename, Original: u.Original, Issues: issues}
		if u.Changed() {
			if r.Rewritten, err = u.Source(); err != nil {
				return nil, fmt.Errorf("error formatting %s: %w", u.Filename, err)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// ProcessPackages processes packages in parallel. Results keep the order
// of pkgs.
func (e *Engine) ProcessPackages(ctx context.Context, pkgs []*unit.Package) ([]Result, error) {
	bar := progressbar.NewOptions(len(pkgs),
		progressbar.OptionSetWriter(e.progress),
		progressbar.OptionSetDescription("packages"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	perPkg := make([][]Result, len(pkgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, pkg := range pkgs {
		i, pkg := i, pkg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results, err := e.ProcessPackage(pkg)
			if err != nil {
				e.logger.Error("Error processing package", zap.String("package", pkg.Path), zap.Error(err))
				return err
			}
			perPkg[i] = results
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	var all []Result
	for _, results := range perPkg {
		all = append(all, results...)
	}
	return all, nil
}

// ProcessDir loads the packages matching patterns under dir, builds the
// recipes of config against their module versions and processes them.
func ProcessDir(ctx context.Context, logger *zap.Logger, config Config, dir string, progress io.Writer, patterns ...string) ([]Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	pkgs, err := unit.Load(ctx, dir, patterns...)
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		for _, err := range pkg.Errors() {
			if logger != nil {
				logger.Warn("package has errors", zap.String("package", pkg.Path), zap.Error(err))
			}
		}
	}

	recipes, err := BuildRecipes(config, unit.ModuleVersions(pkgs), logger)
	if err != nil {
		return nil, err
	}
	return New(recipes, logger, progress).ProcessPackages(ctx, pkgs)
}

// Issues flattens the issues of results.
func Issues(results []Result) []tt.Issue {
	var issues []tt.Issue
	for _, r := range results {
		issues = append(issues, r.Issues...)
	}
	return issues
}

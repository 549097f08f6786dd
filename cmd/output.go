package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/formatter"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/sweep"
)

// outputOptions controls how the results of a run are printed and stored.
type outputOptions struct {
	dryRun     bool
	showDiff   bool
	complexity bool
	json       bool
	outPath    string
}

// report prints the issues of results and, unless dryRun is set, writes the
// rewritten files back.
func report(w io.Writer, logger *zap.Logger, results []sweep.Result, opts outputOptions) error {
	sort.Slice(results, func(i, j int) bool { return results[i].Filename < results[j].Filename })

	if opts.json {
		if err := printJSON(w, results, opts.outPath); err != nil {
			return err
		}
	} else {
		printIssues(w, results)
	}

	for _, r := range results {
		if !r.Changed() {
			continue
		}
		if opts.showDiff {
			diff, err := sweep.Diff(r)
			if err != nil {
				return fmt.Errorf("error rendering diff of %s: %w", r.Filename, err)
			}
			fmt.Fprint(w, formatter.FormatDiff(diff))
		}
		if opts.complexity {
			changes, err := sweep.Complexity(r)
			if err != nil {
				logger.Warn("skipping complexity report", zap.String("file", r.Filename), zap.Error(err))
				continue
			}
			fmt.Fprint(w, formatter.FormatComplexity(r.Filename, changes))
		}
	}

	if opts.dryRun {
		return nil
	}
	return sweep.Write(results)
}

func printIssues(w io.Writer, results []sweep.Result) {
	for _, r := range results {
		if len(r.Issues) == 0 {
			continue
		}
		// issues point into the source as it was loaded
		output := formatter.GenerateFormattedIssue(r.Issues, formatter.NewSourceCode(r.Original))
		fmt.Fprintln(w, output)
	}
}

func printJSON(w io.Writer, results []sweep.Result, outPath string) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, r := range results {
		if len(r.Issues) > 0 {
			issuesByFile[r.Filename] = r.Issues
		}
	}

	d, err := json.Marshal(issuesByFile)
	if err != nil {
		return fmt.Errorf("error marshalling issues to JSON: %w", err)
	}
	if outPath == "" {
		fmt.Fprintln(w, string(d))
		return nil
	}
	if err := os.WriteFile(outPath, d, 0o644); err != nil {
		return fmt.Errorf("error writing JSON output file: %w", err)
	}
	return nil
}

// addOutputFlags registers the flags shared by the rewriting commands.
func addOutputFlags(cmd *cobra.Command, opts *outputOptions) {
	flags := cmd.Flags()
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print what would change without writing files")
	flags.BoolVar(&opts.showDiff, "diff", false, "Print a unified diff of every rewritten file")
	flags.BoolVar(&opts.complexity, "complexity", false, "Print how the cyclomatic complexity of rewritten functions changed")
}

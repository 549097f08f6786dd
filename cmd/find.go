package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/internal/finder"
	"github.com/gnolang/flagsweep/sweep"
)

var (
	findFlag     sweep.RecipeConfig
	findOutput   outputOptions
	findAnnotate bool
	findWatch    bool
)

// findCmd: flagsweep find --preset launchdarkly [packages...]
var findCmd = &cobra.Command{
	Use:   "find [packages...]",
	Short: "Report the calls that read feature flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := findFlag
		rc.Type = sweep.RecipeFindFlag
		config := sweep.Config{Name: "find", Recipes: []sweep.RecipeConfig{rc}}

		if !findWatch {
			return find(cmd, config, args)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := find(cmd, config, args); err != nil {
			logger.Error("find failed", zap.Error(err))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s for changes\n", rootDir)
		return sweep.Watch(ctx, logger, []string{rootDir}, func(changed []string) {
			logger.Info("re-running find", zap.Int("files", len(changed)))
			if err := find(cmd, config, args); err != nil {
				logger.Error("find failed", zap.Error(err))
			}
		})
	},
}

func init() {
	addFlagFlags(findCmd, &findFlag)
	findCmd.Flags().StringVar(&findFlag.Kind, "kind", "", "Only report flags of this type: bool, string, int or float")
	findCmd.Flags().BoolVar(&findOutput.json, "json", false, "Output issues in JSON format")
	findCmd.Flags().StringVarP(&findOutput.outPath, "output", "o", "", "Output path (when using JSON)")
	findCmd.Flags().BoolVar(&findAnnotate, "annotate", false, "Insert a "+finder.Marker+" marker before every match")
	findCmd.Flags().BoolVar(&findWatch, "watch", false, "Re-run whenever a Go file changes")
}

func find(cmd *cobra.Command, config sweep.Config, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	results, err := sweep.ProcessDir(ctx, logger, config, rootDir, cmd.ErrOrStderr(), args...)
	if err != nil {
		return err
	}

	opts := findOutput
	opts.dryRun = true
	if err := report(cmd.OutOrStdout(), logger, results, opts); err != nil {
		return err
	}
	if !findAnnotate {
		return nil
	}
	return annotate(results)
}

// annotate marks the matches of results in the files on disk.
func annotate(results []sweep.Result) error {
	for _, r := range results {
		if len(r.Issues) == 0 {
			continue
		}
		r.Rewritten = finder.Annotate(r.Original, r.Issues)
		if string(r.Rewritten) == string(r.Original) {
			continue
		}
		if err := sweep.Write([]sweep.Result{r}); err != nil {
			return err
		}
	}
	return nil
}

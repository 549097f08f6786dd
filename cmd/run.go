package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gnolang/flagsweep/sweep"
)

var runOutput outputOptions

// runCmd: flagsweep run [packages...]
var runCmd = &cobra.Command{
	Use:   "run [packages...]",
	Short: "Run the recipes of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := sweep.ParseConfig(cfgFile)
		if err != nil {
			return err
		}
		return runSweep(cmd, config, args, runOutput)
	},
}

func init() {
	addOutputFlags(runCmd, &runOutput)
	runCmd.Flags().BoolVar(&runOutput.json, "json", false, "Output issues in JSON format")
	runCmd.Flags().StringVarP(&runOutput.outPath, "output", "o", "", "Output path (when using JSON)")
}

// runSweep processes the packages matching args under --dir with the
// recipes of config and reports the results.
func runSweep(cmd *cobra.Command, config sweep.Config, args []string, opts outputOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	results, err := sweep.ProcessDir(ctx, logger, config, rootDir, cmd.ErrOrStderr(), args...)
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), logger, results, opts)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnolang/flagsweep/sweep"
)

var (
	defaultFlag   sweep.RecipeConfig
	defaultOutput outputOptions
)

// defaultCmd: flagsweep default --key my-flag --value true [packages...]
var defaultCmd = &cobra.Command{
	Use:   "default [packages...]",
	Short: "Change the default value passed to the evaluations of a feature flag",
	Example: `  flagsweep default --preset launchdarkly --key new-checkout --value true ./...
  flagsweep default --pattern 'example.com/flags.Client Limit(string, int)' --key rate --kind int --value 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := defaultFlag
		rc.Type = sweep.RecipeChangeDefault
		config := sweep.Config{Name: "default " + rc.Key, Recipes: []sweep.RecipeConfig{rc}}
		return runSweep(cmd, config, args, defaultOutput)
	},
}

func init() {
	addFlagFlags(defaultCmd, &defaultFlag)
	defaultCmd.Flags().StringVar(&defaultFlag.Kind, "kind", "bool", "Type of the flag value: bool, string, int or float")
	defaultCmd.Flags().StringVar(&defaultFlag.Value, "value", "", "New default value")
	addOutputFlags(defaultCmd, &defaultOutput)
	_ = defaultCmd.MarkFlagRequired("key")
	_ = defaultCmd.MarkFlagRequired("value")
}

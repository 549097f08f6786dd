package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnolang/flagsweep/sweep"
)

var (
	removeFlag   sweep.RecipeConfig
	removeRounds int
	removeImpure bool
	removeOutput outputOptions
)

// removeCmd: flagsweep remove --key my-flag --value true [packages...]
var removeCmd = &cobra.Command{
	Use:   "remove [packages...]",
	Short: "Replace a feature flag with a fixed value and fold the dead code",
	Example: `  flagsweep remove --preset launchdarkly --key new-checkout --kind bool --value true ./...
  flagsweep remove --pattern 'example.com/flags.Client Enabled(string)' --key beta --value false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := removeFlag
		rc.Type = sweep.RecipeRemoveFlag
		config := sweep.Config{
			Name:            "remove " + rc.Key,
			MaxRounds:       removeRounds,
			WithSideEffects: removeImpure,
			Recipes:         []sweep.RecipeConfig{rc},
		}
		return runSweep(cmd, config, args, removeOutput)
	},
}

func init() {
	addFlagFlags(removeCmd, &removeFlag)
	removeCmd.Flags().StringVar(&removeFlag.Kind, "kind", "bool", "Type of the flag value: bool, string, int or float")
	removeCmd.Flags().StringVar(&removeFlag.Value, "value", "true", "Value the flag always returns")
	removeCmd.Flags().IntVar(&removeRounds, "max-rounds", 0, "Maximum simplification rounds (0 for the default)")
	removeCmd.Flags().BoolVar(&removeImpure, "with-side-effects", false, "Also drop unused initializers that may have side effects")
	addOutputFlags(removeCmd, &removeOutput)
	_ = removeCmd.MarkFlagRequired("key")
}

// addFlagFlags registers the flags selecting which calls read a flag.
func addFlagFlags(cmd *cobra.Command, rc *sweep.RecipeConfig) {
	cmd.Flags().StringVar(&rc.Preset, "preset", "", "Flag SDK whose evaluation calls to match (launchdarkly, openfeature, unleash)")
	cmd.Flags().StringArrayVar(&rc.Patterns, "pattern", nil, "Call pattern of a flag evaluation method; may be repeated")
	cmd.Flags().StringVar(&rc.Key, "key", "", "Flag key")
}

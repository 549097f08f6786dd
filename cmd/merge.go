package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnolang/flagsweep/sweep"
)

var (
	mergeChain  sweep.RecipeConfig
	mergeOutput outputOptions
)

// mergeCmd: flagsweep merge --terminal ... --target ... [packages...]
var mergeCmd = &cobra.Command{
	Use:   "merge [packages...]",
	Short: "Merge repeated calls of a fluent chain into one variadic call",
	Example: `  flagsweep merge \
    --terminal 'example.com/app.Builder build()' \
    --target 'example.com/app.Builder mark(string)' \
    --merged-name markAll`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := mergeChain
		rc.Type = sweep.RecipeMergeChain
		config := sweep.Config{Name: "merge", Recipes: []sweep.RecipeConfig{rc}}
		return runSweep(cmd, config, args, mergeOutput)
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeChain.Terminal, "terminal", "", "Pattern of the call ending the chain")
	mergeCmd.Flags().StringVar(&mergeChain.Link, "link", "", "Pattern of the calls the chain may pass through (any method by default)")
	mergeCmd.Flags().StringVar(&mergeChain.Target, "target", "", "Pattern of the calls to merge")
	mergeCmd.Flags().StringVar(&mergeChain.MergedName, "merged-name", "", "Variadic method the merged call uses (the target method by default)")
	mergeCmd.Flags().StringVar(&mergeChain.Keep, "keep", "first", "Where the merged call goes: first or last")
	addOutputFlags(mergeCmd, &mergeOutput)
	_ = mergeCmd.MarkFlagRequired("terminal")
	_ = mergeCmd.MarkFlagRequired("target")
}

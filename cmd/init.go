package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/flagsweep/sweep"
)

// initCmd: flagsweep init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sweep.WriteConfig(cfgFile, sweep.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", cfgFile)
		return nil
	},
}

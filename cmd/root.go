package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/flagsweep/sweep"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile string
	timeout time.Duration
	verbose bool
	rootDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "flagsweep",
	Short: "flagsweep - remove and find feature flags in Go code",
	Long: `flagsweep rewrites Go packages as if a feature flag always returned a fixed value,
then folds the branches and declarations that became dead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", sweep.DefaultConfigPath, "Path to the configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Abort the run after this duration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", ".", "Directory the package patterns are relative to")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(defaultCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(runCmd)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}

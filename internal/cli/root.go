// Package cli provides the salesctl command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	appctx "salesboard/internal/core/context"
	"salesboard/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "salesctl",
		Short: "Sales analysis from the command line",
		Long: `salesctl analyzes sales exports offline and loads them into the
salesboard database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if verbose {
				level = "debug"
			}
			log, err := logger.New(logger.Config{
				Level:       level,
				Format:      logger.FormatConsole,
				Development: true,
			})
			if err != nil {
				return err
			}
			logger.SetDefault(log)
			cmd.SetContext(appctx.WithTrace(cmd.Context(), appctx.NewRunTrace(cmd.Name())))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging on stderr")

	rootCmd.AddCommand(NewAnalyzeCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewSampleCommand())

	return rootCmd
}

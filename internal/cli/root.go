// Package cli wires the cobra commands driving the reconciliation
// engine: import, export, clean and version.
package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vorvix/zato/internal/config"
	"github.com/vorvix/zato/internal/report"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	verbose   bool
	colsWidth string
)

var log = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "enmasse",
	Short: "Manage cluster configuration objects en masse",
	Long: `enmasse reconciles a declarative configuration document against the
live state of a cluster: importing new objects, updating existing ones,
or exporting a consolidated dump merging local definitions with the
cluster's current contents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Timestamp().Logger()

		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&colsWidth, "cols-width", report.DefaultColsWidth,
		"Column widths for the report table")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

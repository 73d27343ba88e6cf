// Package cmd defines and implements the CLI commands for the link-archiver executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link-archiver",
		Short: "Submits URLs from YAML files to web archiving services",
		Long: `link-archiver extracts every URL from a set of YAML configuration
files, submits each one to the configured archiving services (Wayback
Machine and archive.today by default), and records the outcomes in a
single JSON log intended to be committed back to the repository by CI.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.AddCommand(newArchiveCmd())

	return cmd
}

// Execute is the main entry point. Per-URL failures are recorded in the
// log, not here; a non-zero exit means the run itself could not complete.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

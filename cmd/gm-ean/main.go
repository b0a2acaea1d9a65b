// Gm-ean edits the EAN/GTIN of inventory parts from a terminal.
//
// It talks to a gm-ean-server over HTTP and offers an interactive EAN panel,
// direct set and search commands, and mDNS server discovery.
//
// Usage:
//
//	gm-ean [command] [flags]
//
// Running without arguments opens the interactive panel for --part.
// See 'gm-ean --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grischamedia/gmean/internal/logging"
	"github.com/grischamedia/gmean/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "gm-ean",
	Short: "GM EAN Editor",
	Long: `A terminal client for the GM EAN plugin.

Shows a part's EAN panel, saves new EAN/GTIN codes, looks up parts by code
and discovers gm-ean servers on the local network.

If no command is specified, the interactive EAN panel opens.`,
	Version:      version.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the panel when no subcommand is provided
		return runEdit(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gm-ean %s (commit: %s)\n", version.Version, version.Commit)
	},
}

// Gm-ean-server serves the EAN plugin endpoints for a small part store.
//
// It answers the EAN panel's save requests, resolves scanned barcodes to
// parts and pushes saved EANs to connected panels over a websocket. Parts and
// plugin settings live in a YAML file.
//
// Usage:
//
//	gm-ean-server serve [flags]
//
// See 'gm-ean-server serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grischamedia/gmean/internal/discovery"
	"github.com/grischamedia/gmean/internal/server"
	"github.com/grischamedia/gmean/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gm-ean-server",
	Short: "GM EAN plugin server",
	Long: `A standalone server for the GM EAN plugin.

It stores EAN/GTIN codes in part metadata, enforces their uniqueness, resolves
scanned barcodes to parts and notifies open EAN panels of changes.

For editing EANs from a terminal, use the separate 'gm-ean' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host      string
	port      int
	storePath string
	logLevel  string
	advertise bool
	instance  string
	certPath  string
	keyPath   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the plugin server",
	Long: `Start the GM EAN plugin server.

The part store is a YAML file. When it does not exist yet it is created with
two example parts. Without --store the user configuration file is used.

With --advertise the server announces itself over mDNS so 'gm-ean discover'
can find it.`,
	Example: `  # Start on the default port with the user config file
  gm-ean-server serve

  # Use a dedicated store and announce the server on the LAN
  gm-ean-server serve --store ./parts.yaml --advertise

  # Serve HTTPS
  gm-ean-server serve --cert cert.pem --key key.pem --port 8443`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", discovery.DefaultPort, "Server port")
	serveCmd.Flags().StringVar(&storePath, "store", "", "Path to the part store (default: user config file)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the server over mDNS")
	serveCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: gm-ean on <hostname>)")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file (enables HTTPS)")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
}

func runServe(cmd *cobra.Command, args []string) error {
	if (certPath != "" && keyPath == "") || (certPath == "" && keyPath != "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}

	if certPath != "" {
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", certPath)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", keyPath)
		}
	}

	config := &server.Config{
		Host:      host,
		Port:      port,
		StorePath: storePath,
		LogLevel:  logLevel,
		Advertise: advertise,
		Instance:  instance,
		CertPath:  certPath,
		KeyPath:   keyPath,
	}

	srv, err := server.New(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gm-ean-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}

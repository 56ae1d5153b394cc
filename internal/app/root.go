package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/config"
)

var (
	configPath string
	dbDSN      string
	hostRoot   string

	// RootCmd is the root command for addonsweep
	RootCmd = &cobra.Command{
		Use:   "addonsweep",
		Short: "Find and remove product extensions that will not survive a host upgrade",
		Long: `addonsweep inventories every installed extension of the product family,
scans its source for deprecated host-API and library-API calls, and sorts
the results into four groups:

  Incompatible      source uses APIs the next host major removes
  No files on disk  registered, but nothing left to scan
  Compatible        no deprecated API usage found
  Core              the product's own engine and tooling (never removable)

Incompatible and no-files extensions can be removed. Removal goes through
the host's own uninstaller first and falls back to deleting the registry
row when the uninstaller refuses.

Configuration is read from $XDG_CONFIG_HOME/addonsweep/config.yaml when it
exists; the global flags below override it.

Examples:
  # Classify the family and print the four groups
  addonsweep scan

  # Look at one extension in detail
  addonsweep explain 42

  # Remove everything that is safe to offer, after confirmation
  addonsweep remove

  # Serve the listing and removal form in a browser
  addonsweep serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "addonsweep: extension compatibility sweep for the product family")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'addonsweep doctor' to check the configuration.")
			fmt.Fprintln(out, "Run 'addonsweep scan' to classify installed extensions.")
			fmt.Fprintln(out, "Run 'addonsweep --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/addonsweep/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "registry DSN: a SQLite path or a postgres:// URL (overrides registry.dsn)")
	RootCmd.PersistentFlags().StringVar(&hostRoot, "host-root", "", "host installation root (overrides host.root)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config file: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dbDSN != "" {
		cfg.Registry.DSN = dbDSN
		cfg.Registry.Driver = driverFor(dbDSN)
	}
	if hostRoot != "" {
		cfg.Host.Root = hostRoot
	}
	return cfg, nil
}

// driverFor picks the registry driver from the shape of a DSN.
func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return config.DriverPostgres
	}
	return config.DriverSQLite
}

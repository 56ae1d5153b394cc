package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/catalog"
	"github.com/blackwell-systems/addonsweep/internal/config"
	"github.com/blackwell-systems/addonsweep/internal/host"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration, registry and host layout",
	Long: `Runs diagnostic checks on the addonsweep setup.

Checks:
  • Configuration file parses and validates
  • Registry is reachable and lists the product family
  • Host extension roots exist
  • Host uninstall command is available
  • Rule catalog compiles

Critical problems exit with an error. Warnings are reported but leave
addonsweep usable: without the uninstall command, for example, removals
fall back to deleting registry rows.`,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running addonsweep diagnostics...")
	fmt.Fprintln(out)

	criticalIssues := 0
	warningIssues := 0

	// Check 1: configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(out, "✗ Configuration error:", err)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Found 1 critical issue(s); fix the configuration and rerun.")
		return errors.New("diagnostics failed")
	}
	if path := resolvedConfigPath(); path == "" {
		fmt.Fprintln(out, "✓ Configuration: built-in defaults")
	} else if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(out, "✓ Configuration: built-in defaults (no file at "+path+")")
	} else {
		fmt.Fprintln(out, "✓ Configuration loaded:", path)
	}

	// Check 2: registry
	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		fmt.Fprintf(out, "✗ Cannot open %s registry: %v\n", cfg.Registry.Driver, err)
		fmt.Fprintln(out, "  Action: check registry.driver and registry.dsn, or pass --db")
		criticalIssues++
	} else {
		defer reg.Close()
		fmt.Fprintf(out, "✓ Registry reachable (%s)\n", cfg.Registry.Driver)

		records, err := reg.ListFamily(ctx, cfg.Product.Prefix)
		switch {
		case err != nil:
			fmt.Fprintln(out, "✗ Cannot list extensions:", err)
			criticalIssues++
		case len(records) == 0:
			fmt.Fprintf(out, "⚠ No extensions matching %q are registered\n", cfg.Product.Prefix)
			fmt.Fprintln(out, "  Action: check product.prefix")
			warningIssues++
		default:
			fmt.Fprintf(out, "✓ %d extension(s) of the %q family registered\n", len(records), cfg.Product.Prefix)
		}
	}

	// Check 3: host roots
	roots := cfg.Roots()
	found := 0
	for _, root := range []struct{ name, path string }{
		{"site", roots.Site},
		{"admin", roots.Admin},
		{"plugins", roots.Plugins},
		{"libraries", roots.Libraries},
	} {
		if info, err := os.Stat(root.path); err != nil || !info.IsDir() {
			fmt.Fprintf(out, "⚠ Host %s root not found: %s\n", root.name, root.path)
			warningIssues++
			continue
		}
		found++
	}
	if found == 0 {
		fmt.Fprintln(out, "✗ No host extension roots found: every extension would classify as no-files")
		fmt.Fprintln(out, "  Action: set host.root or pass --host-root")
		criticalIssues++
	} else {
		fmt.Fprintf(out, "✓ %d of 4 host roots found under %s\n", found, cfg.Host.Root)
	}

	// Check 4: uninstall command, warning only
	un := host.NewCommandUninstaller(cfg.Uninstall.Command, cfg.Host.Root)
	if err := un.Check(); err != nil {
		fmt.Fprintln(out, "⚠ Uninstall command unavailable:", err)
		fmt.Fprintln(out, "  Removals will delete registry rows only and leave files on disk")
		warningIssues++
	} else {
		fmt.Fprintln(out, "✓ Uninstall command available:", cfg.Uninstall.Command)
	}

	// Check 5: rule catalog
	if cat, err := catalog.FromConfig(cfg.Scan.Patterns); err != nil {
		fmt.Fprintln(out, "✗ Rule catalog:", err)
		criticalIssues++
	} else {
		fmt.Fprintf(out, "✓ Rule catalog: %d rules\n", cat.Len())
	}

	fmt.Fprintln(out)
	if criticalIssues > 0 {
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return errors.New("diagnostics failed")
	}
	if warningIssues > 0 {
		fmt.Fprintf(out, "Found %d warning(s). addonsweep is usable but not fully configured.\n", warningIssues)
		return nil
	}

	fmt.Fprintln(out, "✓ All checks passed!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  • Classify extensions: addonsweep scan")
	fmt.Fprintln(out, "  • Review removals: addonsweep remove --dry-run")
	return nil
}

// resolvedConfigPath returns the config file path in effect, or "" when it
// cannot be determined.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	p, err := config.DefaultPath()
	if err != nil {
		return ""
	}
	return p
}

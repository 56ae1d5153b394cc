package app

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/output"
	"github.com/blackwell-systems/addonsweep/internal/registry"
)

var explainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Show the classification of one extension in detail",
	Long: `Classify a single extension and print its registry record, resolved
install path, manifest metadata, status and reason.

For incompatible extensions every deprecated-API finding is listed,
library-API findings first.`,
	Example: `  # Explain extension 42
  addonsweep explain 42`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("missing extension id\nRun 'addonsweep scan' to list extension ids")
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runExplain,
}

func init() {
	RootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid extension id %q: must be a positive integer", args[0])
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	rec, err := e.registry.Get(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("extension #%d not found in the registry", id)
	}
	if err != nil {
		return err
	}
	if !e.engine.Loader().Member(rec) {
		return fmt.Errorf("extension #%d (%s) is not part of the %q family", id, rec.Element, e.cfg.Product.Prefix)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderResult(e.engine.ClassifyRecord(rec)))
	return nil
}

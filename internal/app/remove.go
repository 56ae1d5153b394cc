package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/output"
	"github.com/blackwell-systems/addonsweep/internal/removal"
)

var (
	removeFlagStatus string
	removeFlagDryRun bool
	removeFlagYes    bool
)

var removeCmd = &cobra.Command{
	Use:   "remove [ids...]",
	Short: "Remove incompatible and no-files extensions",
	Long: `Remove extensions of the product family that will not survive the host
upgrade.

If no ids are given, every removable extension from a fresh classification
run is selected. Use --status to narrow the selection to one group:
  --status incompatible   extensions using deprecated APIs
  --status no-files       registry entries with nothing on disk

If ids are given, each must be removable in the current classification.
Compatible and core extensions are never removed; ids outside the family
are skipped with a warning.

Each selected extension is first passed to the host uninstaller. When the
uninstaller refuses, the registry row alone is deleted and the extension's
files may remain on disk.`,
	Example: `  # Preview what would be removed
  addonsweep remove --dry-run

  # Remove only the registry leftovers, without a prompt
  addonsweep remove --status no-files --yes

  # Remove specific extensions
  addonsweep remove 42 57`,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().StringVar(&removeFlagStatus, "status", "", "only select extensions with this status: incompatible, no-files")
	removeCmd.Flags().BoolVar(&removeFlagDryRun, "dry-run", false, "show what would be removed without removing")
	removeCmd.Flags().BoolVar(&removeFlagYes, "yes", false, "skip the confirmation prompt")

	RootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	status, err := parseRemoveStatus(removeFlagStatus)
	if err != nil {
		return err
	}
	ids, err := parseIDArgs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	listing, err := e.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to classify extensions: %w", err)
	}

	candidates, skipped := selectCandidates(listing, ids, status)
	for _, msg := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", msg)
	}

	if len(candidates) == 0 {
		fmt.Fprintln(out, "No removable extensions selected.")
		return nil
	}

	fmt.Fprintf(out, "\nExtensions to remove:\n\n")
	for _, r := range candidates {
		fmt.Fprintf(out, "  #%-5d %-32s %-14s %s\n", r.Record.ID, r.Record.Name, r.Status, r.Reason)
	}
	fmt.Fprintln(out)

	if removeFlagDryRun {
		fmt.Fprintln(out, "Dry-run mode: no extensions will be removed.")
		return nil
	}

	if !removeFlagYes && !confirmRemoval(cmd.InOrStdin(), out, len(candidates)) {
		fmt.Fprintln(out, "Removal cancelled.")
		return nil
	}

	selected := make([]int64, len(candidates))
	for i, r := range candidates {
		selected[i] = r.Record.ID
	}

	progress := output.NewProgress(len(selected), "Removing extensions")
	progress.SetWriter(cmd.ErrOrStderr())
	e.remover.OnOutcome = func(o removal.Outcome) {
		progress.Describe(o.Name)
		progress.Increment()
	}
	batch := e.remover.RemoveBatch(ctx, selected)
	progress.Finish()

	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderNotices(batch.Notices()))

	if t := batch.Tally(); t.Error > 0 {
		return fmt.Errorf("%d of %d removals failed", t.Error, len(selected))
	}
	return nil
}

func parseRemoveStatus(s string) (extension.Status, error) {
	switch extension.Status(s) {
	case "":
		return "", nil
	case extension.StatusIncompatible, extension.StatusNoFiles:
		return extension.Status(s), nil
	default:
		return "", fmt.Errorf("invalid --status value %q: must be one of: incompatible, no-files", s)
	}
}

// parseIDArgs parses explicit ids. Unlike form input, a malformed argument
// is an error rather than silently dropped.
func parseIDArgs(args []string) ([]int64, error) {
	var ids []int64
	for _, a := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid extension id %q: must be a positive integer", a)
		}
		ids = append(ids, id)
	}
	return removal.FilterIDs(ids), nil
}

// selectCandidates returns the results to remove and a message for every
// explicit id that was skipped. With no ids, all selectable results are
// taken. A non-empty status narrows either selection.
func selectCandidates(l *classifier.Listing, ids []int64, status extension.Status) ([]*extension.Result, []string) {
	var candidates []*extension.Result
	var skipped []string

	if len(ids) == 0 {
		for _, r := range l.Selectable() {
			if status == "" || r.Status == status {
				candidates = append(candidates, r)
			}
		}
		return candidates, nil
	}

	for _, id := range ids {
		r, ok := l.Find(id)
		switch {
		case !ok:
			skipped = append(skipped, fmt.Sprintf("#%d: not an installed extension of the product family, skipped", id))
		case !r.Selectable():
			skipped = append(skipped, fmt.Sprintf("%s (#%d): %s, not removable, skipped", r.Record.Name, id, r.Status))
		case status != "" && r.Status != status:
			skipped = append(skipped, fmt.Sprintf("%s (#%d): %s, does not match --status %s, skipped", r.Record.Name, id, r.Status, status))
		default:
			candidates = append(candidates, r)
		}
	}
	return candidates, skipped
}

// confirmRemoval prompts on out and reads the answer from in.
func confirmRemoval(in io.Reader, out io.Writer, count int) bool {
	fmt.Fprintf(out, "Remove %d extension(s)? [y/N]: ", count)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

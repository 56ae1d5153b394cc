package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/output"
)

var (
	scanJSON  bool
	scanQuiet bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Classify installed extensions of the product family",
		Long: `Load the product family from the host registry, scan each extension's
source tree for deprecated API usage, and print the four-group listing.

Every run starts from scratch: the registry is read again and every tree is
rescanned. Nothing is cached between runs.

Extensions marked with * in the listing can be removed with
'addonsweep remove'.`,
		Example: `  # Print the listing
  addonsweep scan

  # Machine-readable output
  addonsweep scan --json

  # Only the per-group counts
  addonsweep scan --quiet`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the listing as JSON")
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "print only the summary line")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	var spinner *output.Spinner
	if !scanJSON {
		spinner = output.NewSpinner("Classifying extensions")
		spinner.SetWriter(cmd.ErrOrStderr())
		spinner.Start()
	}

	listing, err := e.engine.Run(ctx)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return fmt.Errorf("failed to classify extensions: %w", err)
	}

	if scanJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(newListingJSON(listing))
	}

	fmt.Fprintln(out, output.RenderSummary(listing))
	if scanQuiet {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderListing(listing))

	if n := len(listing.Selectable()); n > 0 {
		fmt.Fprintf(out, "\n%d extension(s) marked * can be removed. Run 'addonsweep remove' to review them.\n", n)
	}
	return nil
}

type issueJSON struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

type resultJSON struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Element    string      `json:"element"`
	Folder     string      `json:"folder,omitempty"`
	Scope      string      `json:"scope"`
	Version    string      `json:"version"`
	Author     string      `json:"author"`
	Path       string      `json:"path,omitempty"`
	Status     string      `json:"status"`
	Reason     string      `json:"reason"`
	Protected  bool        `json:"protected"`
	Selectable bool        `json:"selectable"`
	Issues     []issueJSON `json:"issues"`
}

type listingJSON struct {
	Counts  map[string]int `json:"counts"`
	Results []resultJSON   `json:"results"`
}

func newListingJSON(l *classifier.Listing) listingJSON {
	doc := listingJSON{
		Counts:  make(map[string]int, len(extension.Statuses)),
		Results: make([]resultJSON, 0, l.Len()),
	}
	for st, n := range l.Counts() {
		doc.Counts[string(st)] = n
	}
	for _, r := range l.Results() {
		issues := make([]issueJSON, 0, len(r.Issues))
		for _, is := range r.Issues {
			issues = append(issues, issueJSON{Category: string(is.Category), Detail: is.Detail})
		}
		doc.Results = append(doc.Results, resultJSON{
			ID:         r.Record.ID,
			Name:       r.Record.Name,
			Kind:       string(r.Record.Kind),
			Element:    r.Record.Element,
			Folder:     r.Record.Folder,
			Scope:      r.Record.Scope.String(),
			Version:    r.Manifest.Version,
			Author:     r.Manifest.Author,
			Path:       r.Path,
			Status:     string(r.Status),
			Reason:     r.Reason,
			Protected:  r.Protected,
			Selectable: r.Selectable(),
			Issues:     issues,
		})
	}
	return doc
}

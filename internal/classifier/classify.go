// Package classifier turns a record, its manifest and its scan outcome into a
// migration-readiness status, and runs full classification passes over the
// product family's inventory.
package classifier

import (
	"fmt"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// ScanOutcome is what path resolution and scanning produced for one record.
type ScanOutcome struct {
	Path     string
	Resolved bool // the resolver returned a path
	Exists   bool // the path exists on disk
	Issues   []extension.Issue
}

// Classifier applies the status rules against a protected set.
type Classifier struct {
	protected ProtectedSet
}

// New creates a Classifier.
func New(protected ProtectedSet) *Classifier {
	return &Classifier{protected: protected}
}

// Protected returns the classifier's protected set.
func (c *Classifier) Protected() ProtectedSet {
	return c.protected
}

// Classify returns exactly one status for rec. Rules, first match wins:
// protected element, then missing files, then clean scan, then issues.
// It is total over malformed manifests.
func (c *Classifier) Classify(rec *extension.Record, m extension.Manifest, out ScanOutcome) *extension.Result {
	if m.Version == "" {
		m.Version = extension.Unknown
	}
	if m.Author == "" {
		m.Author = extension.Unknown
	}

	res := &extension.Result{
		Record:   rec,
		Manifest: m,
	}
	if out.Resolved {
		res.Path = out.Path
	}

	switch {
	case c.protected.Contains(rec.Element):
		res.Protected = true
		if c.protected.IsCore(rec.Element) {
			res.Status = extension.StatusCore
			res.Reason = fmt.Sprintf("Product core engine (version %s)", m.Version)
		} else {
			res.Status = extension.StatusCompatible
			res.Reason = fmt.Sprintf("Protected product tooling (version %s)", m.Version)
		}

	case !out.Resolved || !out.Exists:
		res.Status = extension.StatusNoFiles
		res.Reason = "No files on disk " + provenance(m)

	case len(out.Issues) == 0:
		res.Status = extension.StatusCompatible
		res.Reason = "No deprecated API usage found " + provenance(m)

	default:
		res.Status = extension.StatusIncompatible
		res.Issues = out.Issues
		res.Reason = SummarizeIssues(out.Issues) + " " + provenance(m)
	}

	return res
}

// SummarizeIssues counts library-API and host-API issues,
// e.g. "2 library-API issues, 1 host-API issue".
func SummarizeIssues(issues []extension.Issue) string {
	lib, host := extension.CountIssues(issues)
	return fmt.Sprintf("%s, %s", plural(lib, "library-API issue"), plural(host, "host-API issue"))
}

func provenance(m extension.Manifest) string {
	return fmt.Sprintf("(author: %s, version: %s)", m.Author, m.Version)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

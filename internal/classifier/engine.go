package classifier

import (
	"context"
	"fmt"
	"os"

	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/inventory"
	"github.com/blackwell-systems/addonsweep/internal/resolver"
	"github.com/blackwell-systems/addonsweep/internal/scanner"
)

// Engine runs full classification passes over the family's inventory.
// It holds no results between runs.
type Engine struct {
	loader     *inventory.Loader
	resolver   *resolver.Resolver
	scanner    *scanner.Scanner
	classifier *Classifier
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(l *inventory.Loader, r *resolver.Resolver, s *scanner.Scanner, c *Classifier) *Engine {
	return &Engine{loader: l, resolver: r, scanner: s, classifier: c}
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Loader returns the engine's inventory loader.
func (e *Engine) Loader() *inventory.Loader {
	return e.loader
}

// Resolver returns the engine's path resolver.
func (e *Engine) Resolver() *resolver.Resolver {
	return e.resolver
}

// Run loads the inventory and classifies every record. Only a loader
// failure or context cancellation fails the run.
func (e *Engine) Run(ctx context.Context) (*Listing, error) {
	records, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]ScanOutcome, len(records))
	var targets []scanner.Target
	for i, rec := range records {
		outcomes[i] = e.locate(rec)
		if outcomes[i].Exists && !e.classifier.protected.Contains(rec.Element) {
			targets = append(targets, scanner.Target{ID: rec.ID, Path: outcomes[i].Path})
		}
	}

	issues, err := e.scanner.ScanAll(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	results := make([]*extension.Result, 0, len(records))
	for i, rec := range records {
		outcomes[i].Issues = issues[rec.ID]
		results = append(results, e.classify(rec, outcomes[i]))
	}
	return NewListing(results), nil
}

// ClassifyRecord classifies a single record, scanning it inline.
func (e *Engine) ClassifyRecord(rec *extension.Record) *extension.Result {
	out := e.locate(rec)
	if out.Exists && !e.classifier.protected.Contains(rec.Element) {
		out.Issues = e.scanner.Scan(out.Path)
	}
	return e.classify(rec, out)
}

func (e *Engine) locate(rec *extension.Record) ScanOutcome {
	path, ok := e.resolver.Resolve(rec)
	out := ScanOutcome{Path: path, Resolved: ok}
	if ok {
		if _, err := os.Stat(path); err == nil {
			out.Exists = true
		}
	}
	return out
}

func (e *Engine) classify(rec *extension.Record, out ScanOutcome) *extension.Result {
	// Unparsable blobs still yield a usable manifest.
	m, _ := extension.ParseManifest(rec.ManifestBlob)
	return e.classifier.Classify(rec, m, out)
}

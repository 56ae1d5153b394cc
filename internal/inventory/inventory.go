// Package inventory loads the product family's extension records from the
// host registry.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// Source is the read side of the registry the loader needs.
type Source interface {
	ListFamily(ctx context.Context, prefix string) ([]*extension.Record, error)
}

// Loader fetches one read-only snapshot of the family's records per call.
type Loader struct {
	source Source
	prefix string
}

// New creates a Loader for records whose element or folder contains prefix.
func New(source Source, prefix string) *Loader {
	return &Loader{source: source, prefix: prefix}
}

// Prefix returns the family naming prefix.
func (l *Loader) Prefix() string {
	return l.prefix
}

// Member reports whether rec belongs to the family, using the same
// case-sensitive substring match as the registry query.
func (l *Loader) Member(rec *extension.Record) bool {
	if l.prefix == "" || rec == nil {
		return false
	}
	return strings.Contains(rec.Element, l.prefix) || strings.Contains(rec.Folder, l.prefix)
}

// Load returns the family's records ordered by kind then name.
// Registry failures are returned as-is; partial results never are.
func (l *Loader) Load(ctx context.Context) ([]*extension.Record, error) {
	if l.prefix == "" {
		return nil, errors.New("product prefix is empty: set product.prefix in the config file")
	}

	records, err := l.source.ListFamily(ctx, l.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return records, nil
}

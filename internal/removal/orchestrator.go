// Package removal executes operator-selected batch removals through the host
// uninstaller, falling back to a registry-only delete per item.
package removal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/registry"
)

// Store is the registry access removal needs: a fresh lookup and a
// single-row delete.
type Store interface {
	Get(ctx context.Context, id int64) (*extension.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Uninstaller runs the host's structured lifecycle uninstall. On success the
// host has removed the registry row, the files and any product-specific data.
type Uninstaller interface {
	Uninstall(ctx context.Context, kind extension.Kind, id int64) (bool, error)
}

// Orchestrator removes batches sequentially.
type Orchestrator struct {
	store       Store
	uninstaller Uninstaller
	protected   classifier.ProtectedSet
	logger      *slog.Logger

	// OnOutcome, when set, is called after each item is processed.
	OnOutcome func(Outcome)
}

// New creates an Orchestrator. A nil logger discards log output.
func New(store Store, u Uninstaller, protected classifier.ProtectedSet, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{store: store, uninstaller: u, protected: protected, logger: logger}
}

// RemoveBatch filters ids and removes each one in order. A failure on one
// item never stops the rest. An empty selection mutates nothing.
func (o *Orchestrator) RemoveBatch(ctx context.Context, ids []int64) Batch {
	ids = FilterIDs(ids)
	if len(ids) == 0 {
		return Batch{NothingSelected: true}
	}

	batch := Batch{Outcomes: make([]Outcome, 0, len(ids))}
	for _, id := range ids {
		out := o.removeOne(ctx, id)
		o.logger.Info("removal attempted", "id", id, "name", out.Name, "result", out.Result.String())
		batch.Outcomes = append(batch.Outcomes, out)
		if o.OnOutcome != nil {
			o.OnOutcome(out)
		}
	}
	return batch
}

func (o *Orchestrator) removeOne(ctx context.Context, id int64) Outcome {
	rec, err := o.store.Get(ctx, id)
	if err != nil {
		name := fmt.Sprintf("#%d", id)
		return Outcome{ID: id, Name: name, Result: Failed, Message: fmt.Sprintf("%s: %v", name, err)}
	}

	name := rec.Name
	if name == "" {
		name = rec.Element
	}

	if o.protected.Contains(rec.Element) {
		return Outcome{ID: id, Name: name, Result: Failed, Message: fmt.Sprintf("%s: protected, skipped", name)}
	}

	ok, err := o.uninstall(ctx, rec)
	if ok && err == nil {
		return Outcome{ID: id, Name: name, Result: RemovedViaLifecycle, Message: name}
	}
	if err == nil {
		err = fmt.Errorf("uninstaller reported failure")
	}
	o.logger.Warn("lifecycle uninstall failed, deleting registry record", "id", id, "name", name, "error", err)

	// The uninstaller may have dropped the row before failing; a delete that
	// matches nothing still leaves the registry without the record.
	if derr := o.store.Delete(ctx, id); derr != nil && !errors.Is(derr, registry.ErrNotFound) {
		return Outcome{ID: id, Name: name, Result: Failed, Message: fmt.Sprintf("%s: %v", name, derr)}
	}
	return Outcome{
		ID:      id,
		Name:    name,
		Result:  RemovedRegistryOnly,
		Message: fmt.Sprintf("%s (files may remain on disk)", name),
	}
}

// uninstall calls the host uninstaller, turning a panic into an error.
func (o *Orchestrator) uninstall(ctx context.Context, rec *extension.Record) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("uninstaller panicked: %v", r)
		}
	}()
	return o.uninstaller.Uninstall(ctx, rec.Kind, rec.ID)
}

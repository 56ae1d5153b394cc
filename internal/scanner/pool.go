package scanner

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// maxWorkers caps the scan pool regardless of core count.
const maxWorkers = 8

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > maxWorkers {
		n = maxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// SetWorkers sets the scan pool size. Values below 1 restore the default.
func (s *Scanner) SetWorkers(n int) {
	if n < 1 {
		n = defaultWorkers()
	}
	s.workers = n
}

// Target is one extension tree to scan.
type Target struct {
	ID   int64
	Path string
}

// ScanAll scans every target with a bounded worker pool and returns the
// issues keyed by target ID. Each tree is scanned independently, so workers
// share no mutable state beyond their own result slot.
func (s *Scanner) ScanAll(ctx context.Context, targets []Target) (map[int64][]extension.Issue, error) {
	results := make([][]extension.Issue, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.Scan(target.Path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int64][]extension.Issue, len(targets))
	for i, target := range targets {
		out[target.ID] = results[i]
	}
	return out, nil
}

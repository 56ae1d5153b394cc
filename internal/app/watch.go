package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/output"
	"github.com/blackwell-systems/addonsweep/internal/watcher"
)

var (
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Reclassify whenever extension source trees change",
		Long: `Classify the product family once, then watch the host's extension
directories and reclassify after every burst of filesystem changes.

Each pass prints the summary line and every extension whose status changed
since the previous pass, including extensions that appeared or were removed.

The watch command runs in the foreground; press Ctrl+C to stop. It keeps no
state on disk.`,
		Example: `  # Watch with the default debounce
  addonsweep watch

  # Wait for two quiet seconds before reclassifying
  addonsweep watch --debounce 2s`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before reclassifying")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

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
	fmt.Fprintln(out, output.RenderSummary(listing))

	p := &watchPass{engine: e.engine, out: out, last: statusByID(listing)}
	w, err := watcher.New(watcher.Dirs(e.cfg.Roots()), func() {
		if err := p.run(ctx); err != nil {
			e.logger.Error("reclassification failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	w.SetDebounce(watchDebounce)
	w.SetLogger(e.logger)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	fmt.Fprintln(out, "Watching for changes (Ctrl+C to stop)...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	fmt.Fprintln(out, "\nStopped watching.")
	return nil
}

// watchPass reruns classification and reports status changes between passes.
type watchPass struct {
	mu     sync.Mutex
	engine *classifier.Engine
	out    io.Writer
	last   map[int64]statusEntry
}

type statusEntry struct {
	name   string
	status extension.Status
}

func (p *watchPass) run(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	listing, err := p.engine.Run(ctx)
	if err != nil {
		return err
	}
	current := statusByID(listing)

	fmt.Fprintf(p.out, "\n[%s] %s\n", time.Now().Format("15:04:05"), output.RenderSummary(listing))
	for _, line := range statusChanges(p.last, current) {
		fmt.Fprintln(p.out, "  "+line)
	}
	p.last = current
	return nil
}

func statusByID(l *classifier.Listing) map[int64]statusEntry {
	m := make(map[int64]statusEntry, l.Len())
	for _, r := range l.Results() {
		m[r.Record.ID] = statusEntry{name: r.Record.Name, status: r.Status}
	}
	return m
}

// statusChanges describes how prev became cur, ordered by id.
func statusChanges(prev, cur map[int64]statusEntry) []string {
	ids := make(map[int64]bool, len(prev)+len(cur))
	for id := range prev {
		ids[id] = true
	}
	for id := range cur {
		ids[id] = true
	}
	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var lines []string
	for _, id := range sorted {
		before, had := prev[id]
		after, has := cur[id]
		switch {
		case had && !has:
			lines = append(lines, fmt.Sprintf("#%d %s: gone (was %s)", id, before.name, before.status))
		case !had && has:
			lines = append(lines, fmt.Sprintf("#%d %s: new, %s", id, after.name, after.status))
		case before.status != after.status:
			lines = append(lines, fmt.Sprintf("#%d %s: %s -> %s", id, after.name, before.status, after.status))
		}
	}
	return lines
}

package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is a file descriptor attached to a terminal.
// Plain writers such as *bytes.Buffer are never terminals.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar shows how far a removal batch has got.
// Example: [=========>          ]  45% Removing com_acme_feed
type ProgressBar struct {
	mu          sync.Mutex
	total       int
	current     int
	description string
	width       int
	writer      io.Writer
}

// NewProgress creates a progress bar for total items, writing to stdout.
func NewProgress(total int, description string) *ProgressBar {
	return &ProgressBar{
		total:       total,
		description: description,
		width:       30,
		writer:      os.Stdout,
	}
}

// SetWriter sets the output writer.
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Describe changes the text shown after the bar, e.g. the current item.
func (p *ProgressBar) Describe(description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.description = description
}

// Increment advances by one item and redraws.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current >= p.total {
		return
	}
	p.current++
	p.render()
}

// Finish fills the bar and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasDone := p.current == p.total
	p.current = p.total

	if writerIsTTY(p.writer) {
		p.render()
		fmt.Fprintln(p.writer)
		return
	}
	// Non-TTY output already printed the completed line.
	if !wasDone {
		p.render()
	}
}

// render draws the bar. Callers hold p.mu.
func (p *ProgressBar) render() {
	percent, filled := 0, 0
	if p.total > 0 {
		percent = p.current * 100 / p.total
		filled = p.current * p.width / p.total
	}

	var bar strings.Builder
	bar.WriteByte('[')
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteByte('=')
		case i == filled-1:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}
	bar.WriteByte(']')

	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r%s %3d%% %s\033[K", bar.String(), percent, p.description)
		return
	}
	// Non-TTY: a single line on completion keeps logs readable.
	if p.current == p.total {
		fmt.Fprintf(p.writer, "%s %3d%% %s\n", bar.String(), percent, p.description)
	}
}

// Spinner shows that a scan is in progress.
// Example: |  Scanning 14 extensions... (3s)
type Spinner struct {
	mu      sync.Mutex
	message string
	frames  []string
	writer  io.Writer
	running bool
	started time.Time
	done    chan struct{}
}

// NewSpinner creates a stopped spinner writing to stdout.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		frames:  []string{"|", "/", "-", "\\"},
		writer:  os.Stdout,
	}
}

// SetWriter sets the output writer.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation. On a non-TTY writer the message is printed
// once and no goroutine is started.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()
	s.done = make(chan struct{})

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	go s.spin(s.done)
}

func (s *Spinner) spin(done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(s.frames) {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			elapsed := int(time.Since(s.started).Seconds())
			fmt.Fprintf(s.writer, "\r%s  %s (%ds)\033[K", s.frames[i], s.message, elapsed)
			s.mu.Unlock()
		}
	}
}

// UpdateMessage replaces the message while running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop ends the animation and clears the line. Calling it twice is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.done)

	if writerIsTTY(s.writer) {
		fmt.Fprint(s.writer, "\r\033[K")
	}
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}

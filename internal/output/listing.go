// Package output provides terminal output utilities for addonsweep.
//
// This package includes:
//   - Listing rendering for the four status groups and per-extension detail
//   - Removal notice rendering
//   - Progress bars and spinners for scans and removal batches
//
// Tables use plain characters plus ANSI colours when stdout is a terminal and
// NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/removal"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// StatusTitle returns the section heading for a status.
func StatusTitle(st extension.Status) string {
	switch st {
	case extension.StatusIncompatible:
		return "Incompatible"
	case extension.StatusNoFiles:
		return "No files on disk"
	case extension.StatusCompatible:
		return "Compatible"
	case extension.StatusCore:
		return "Core"
	default:
		return string(st)
	}
}

func statusColor(st extension.Status) string {
	switch st {
	case extension.StatusIncompatible:
		return colorRed
	case extension.StatusNoFiles:
		return colorYellow
	case extension.StatusCompatible:
		return colorGreen
	default:
		return colorGray
	}
}

// RenderSummary renders a one-line count per status.
// Format: "INCOMPATIBLE: 2 · NO FILES: 1 · COMPATIBLE: 5 · CORE: 1"
func RenderSummary(l *classifier.Listing) string {
	counts := l.Counts()
	parts := make([]string, 0, len(extension.Statuses))
	for _, st := range extension.Statuses {
		label := strings.ToUpper(StatusTitle(st))
		if st == extension.StatusNoFiles {
			label = "NO FILES"
		}
		parts = append(parts, fmt.Sprintf("%s: %d", colorize(statusColor(st), label), counts[st]))
	}
	return strings.Join(parts, " · ")
}

// RenderListing renders every non-empty section. Removable rows are marked
// with "*" in the first column.
func RenderListing(l *classifier.Listing) string {
	if l.Len() == 0 {
		return "No extensions of the product family are installed.\n"
	}

	var sb strings.Builder
	first := true
	for _, sec := range l.Sections {
		if len(sec.Results) == 0 {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false

		title := fmt.Sprintf("%s (%d)", StatusTitle(sec.Status), len(sec.Results))
		sb.WriteString(colorize(statusColor(sec.Status), title))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  %-6s %-15s %-24s %s\n", "ID", "Kind", "Element", "Reason"))
		sb.WriteString(strings.Repeat("─", 88))
		sb.WriteString("\n")

		for _, r := range sec.Results {
			mark := " "
			if r.Selectable() {
				mark = "*"
			}
			sb.WriteString(fmt.Sprintf("%s %-6d %-15s %-24s %s\n",
				mark,
				r.Record.ID,
				r.Record.Kind,
				truncate(r.Record.Element, 24),
				r.Reason))
		}
	}
	return sb.String()
}

// RenderIssues renders issues grouped by category, library-API first.
func RenderIssues(issues []extension.Issue) string {
	if len(issues) == 0 {
		return "No deprecated API usage found.\n"
	}

	var sb strings.Builder
	for _, group := range []struct {
		cat   extension.Category
		title string
	}{
		{extension.CategoryLibraryAPI, "Library API"},
		{extension.CategoryHostAPI, "Host API"},
	} {
		var details []string
		for _, is := range issues {
			if is.Category == group.cat {
				details = append(details, is.Detail)
			}
		}
		if len(details) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s (%d):\n", group.title, len(details)))
		for _, d := range details {
			sb.WriteString("  - " + d + "\n")
		}
	}
	return sb.String()
}

// RenderResult renders the detailed view of one classification.
func RenderResult(r *extension.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Extension: %s (#%d)\n", r.Record.Name, r.Record.ID))
	sb.WriteString(fmt.Sprintf("Element:   %s\n", r.Record.Element))
	sb.WriteString(fmt.Sprintf("Kind:      %s (%s)\n", r.Record.Kind, r.Record.Scope))
	if r.Record.Folder != "" {
		sb.WriteString(fmt.Sprintf("Folder:    %s\n", r.Record.Folder))
	}
	path := r.Path
	if path == "" {
		path = "(none)"
	}
	sb.WriteString(fmt.Sprintf("Path:      %s\n", path))
	sb.WriteString(fmt.Sprintf("Version:   %s\n", r.Manifest.Version))
	sb.WriteString(fmt.Sprintf("Author:    %s\n", r.Manifest.Author))
	if r.Manifest.AuthorURL != "" {
		sb.WriteString(fmt.Sprintf("URL:       %s\n", r.Manifest.AuthorURL))
	}
	sb.WriteString(fmt.Sprintf("Status:    %s\n", colorize(statusColor(r.Status), string(r.Status))))
	if r.Protected {
		sb.WriteString("Protected: yes\n")
	}
	sb.WriteString("\nReason: " + r.Reason + "\n")

	if r.Status == extension.StatusIncompatible {
		sb.WriteString("\n")
		sb.WriteString(RenderIssues(r.Issues))
	}
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")
	return sb.String()
}

// RenderNotices renders removal notices, one per line.
func RenderNotices(notices []removal.Notice) string {
	var sb strings.Builder
	for _, n := range notices {
		var prefix, color string
		switch n.Level {
		case removal.LevelSuccess:
			prefix, color = "✓", colorGreen
		case removal.LevelWarning:
			prefix, color = "⚠", colorYellow
		case removal.LevelError:
			prefix, color = "✗", colorRed
		default:
			prefix, color = "•", colorGray
		}
		sb.WriteString(colorize(color, prefix) + " " + n.Text + "\n")
	}
	return sb.String()
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

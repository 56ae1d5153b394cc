// Package scanner statically scans extension source trees for deprecated API
// usage using the rule table from the catalog package.
//
// Matching is plain regular-expression work over comment-stripped text. The
// comment stripping is best-effort: string literals that look like comments
// are stripped too, and violations hidden inside comments are never reported.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/blackwell-systems/addonsweep/internal/catalog"
	"github.com/blackwell-systems/addonsweep/internal/extension"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)//.*$`)
)

// DefaultExtensions are the code-file extensions scanned when none are configured.
var DefaultExtensions = []string{".php"}

// Scanner matches source files against a rule catalog.
type Scanner struct {
	catalog    *catalog.Catalog
	extensions map[string]bool
	workers    int
}

// New creates a Scanner. When exts is empty DefaultExtensions is used.
func New(c *catalog.Catalog, exts []string) *Scanner {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return &Scanner{catalog: c, extensions: set, workers: defaultWorkers()}
}

// Scan walks path and returns the deduplicated issues found in its code files.
// A missing path or a tree without code files yields an empty list.
// Unreadable files and directories are skipped.
func (s *Scanner) Scan(path string) []extension.Issue {
	if path == "" {
		return nil
	}
	// WalkDir does not follow a symlinked root.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	seen := make(map[extension.Issue]struct{})

	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry: skip it, keep walking.
			if d != nil && d.IsDir() && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.isCodeFile(p) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}

		for _, is := range s.MatchSource(string(data)) {
			seen[is] = struct{}{}
		}
		return nil
	})

	return sortedIssues(seen)
}

// MatchSource returns one issue per rule that fires anywhere in src after
// comments have been stripped.
func (s *Scanner) MatchSource(src string) []extension.Issue {
	code := StripComments(src)

	var issues []extension.Issue
	for _, rule := range s.catalog.Rules() {
		if rule.Pattern.MatchString(code) {
			issues = append(issues, extension.Issue{Category: rule.Category, Detail: rule.Label})
		}
	}
	return issues
}

// StripComments removes /* */ block comments and // line comments.
func StripComments(src string) string {
	src = blockComment.ReplaceAllString(src, "")
	return lineComment.ReplaceAllString(src, "")
}

func (s *Scanner) isCodeFile(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// sortedIssues flattens a set into a slice ordered by category then detail.
func sortedIssues(set map[extension.Issue]struct{}) []extension.Issue {
	issues := make([]extension.Issue, 0, len(set))
	for is := range set {
		issues = append(issues, is)
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Category != issues[j].Category {
			return issues[i].Category < issues[j].Category
		}
		return issues[i].Detail < issues[j].Detail
	})
	return issues
}

// Package resolver maps registry records to their install directories.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// Roots are the host directories extensions are installed under.
type Roots struct {
	Site      string // front-end root
	Admin     string // back-end root
	Plugins   string
	Libraries string
}

// FromHostRoot derives the standard layout from a single host root.
func FromHostRoot(host string) Roots {
	return Roots{
		Site:      host,
		Admin:     filepath.Join(host, "administrator"),
		Plugins:   filepath.Join(host, "plugins"),
		Libraries: filepath.Join(host, "libraries"),
	}
}

// Resolver resolves install paths for a fixed set of roots.
type Resolver struct {
	roots Roots
}

// New creates a Resolver for roots.
func New(roots Roots) *Resolver {
	return &Resolver{roots: roots}
}

// Roots returns the configured roots.
func (r *Resolver) Roots() Roots {
	return r.roots
}

// Resolve returns the install directory for rec. The second value is false
// when the kind has no single directory (language packs) or is unknown;
// that is a valid result, not an error.
func (r *Resolver) Resolve(rec *extension.Record) (string, bool) {
	if rec == nil || !safeName(rec.Element) {
		return "", false
	}
	if rec.Folder != "" && !safeName(rec.Folder) {
		return "", false
	}

	scopeRoot := r.roots.Site
	if rec.Scope == extension.ScopeAdmin {
		scopeRoot = r.roots.Admin
	}

	switch rec.Kind {
	case extension.KindBundle:
		return filepath.Join(scopeRoot, "components", rec.Element), true
	case extension.KindWidget:
		return filepath.Join(scopeRoot, "modules", rec.Element), true
	case extension.KindHook:
		if rec.Folder == "" {
			return "", false
		}
		return filepath.Join(r.roots.Plugins, rec.Folder, rec.Element), true
	case extension.KindTheme:
		return filepath.Join(scopeRoot, "templates", rec.Element), true
	case extension.KindLibrary:
		return filepath.Join(r.roots.Libraries, rec.Element), true
	default:
		return "", false
	}
}

// safeName reports whether a registry value is usable as a single path
// element below a host root.
func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

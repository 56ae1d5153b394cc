// Package extension holds the domain types shared by the inventory,
// scanning, classification and removal packages.
package extension

// Kind is the installable unit type recorded in the host registry.
type Kind string

const (
	KindBundle       Kind = "bundle"
	KindWidget       Kind = "widget"
	KindHook         Kind = "hook"
	KindTheme        Kind = "theme"
	KindLibrary      Kind = "shared-library"
	KindLanguagePack Kind = "language-pack"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindBundle, KindWidget, KindHook, KindTheme, KindLibrary, KindLanguagePack}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Scope is the client side an extension is installed for.
type Scope int

const (
	ScopeSite  Scope = 0 // front-end
	ScopeAdmin Scope = 1 // back-end
)

func (s Scope) String() string {
	if s == ScopeAdmin {
		return "admin"
	}
	return "site"
}

// Record is one row of the host extension registry.
type Record struct {
	ID           int64
	Name         string
	Kind         Kind
	Element      string
	Folder       string // grouping folder, meaningful for hooks
	Scope        Scope
	Enabled      bool
	ManifestBlob string
}

// Category groups deprecated-API findings.
type Category string

const (
	CategoryHostAPI    Category = "host-api"
	CategoryLibraryAPI Category = "library-api"
)

// Issue is one deduplicated deprecated-API finding.
type Issue struct {
	Category Category
	Detail   string
}

// Status is the migration-readiness category of an extension.
type Status string

const (
	StatusCore         Status = "core"
	StatusCompatible   Status = "compatible"
	StatusIncompatible Status = "incompatible"
	StatusNoFiles      Status = "no-files"
)

// Statuses lists every status in listing order.
var Statuses = []Status{StatusIncompatible, StatusNoFiles, StatusCompatible, StatusCore}

// Removable reports whether extensions with this status may be offered for removal.
func (s Status) Removable() bool {
	return s == StatusIncompatible || s == StatusNoFiles
}

// Result is the classification of one record for one run.
type Result struct {
	Record   *Record
	Manifest Manifest
	Status   Status
	Reason   string
	Issues   []Issue
	Path     string // resolved install path, empty when absent

	// Protected is set when the element belongs to the protected set.
	Protected bool
}

// Selectable reports whether the result may carry a selection control.
func (r *Result) Selectable() bool {
	return !r.Protected && r.Status.Removable()
}

// CountIssues returns the number of library-API and host-API issues.
func CountIssues(issues []Issue) (library, host int) {
	for _, is := range issues {
		switch is.Category {
		case CategoryLibraryAPI:
			library++
		case CategoryHostAPI:
			host++
		}
	}
	return library, host
}

package classifier

// Default protected element keys.
var (
	DefaultCore    = []string{"core-engine"}
	DefaultTooling = []string{"acme_cleanup"}
)

// ProtectedSet holds the element keys that are never flagged incompatible and
// never offered for removal. Core keys denote the product's own engine;
// tooling keys denote its management tooling.
type ProtectedSet struct {
	core    map[string]bool
	tooling map[string]bool
}

// NewProtectedSet builds a set from core and tooling element keys.
// A key listed in both is treated as core.
func NewProtectedSet(core, tooling []string) ProtectedSet {
	p := ProtectedSet{
		core:    make(map[string]bool, len(core)),
		tooling: make(map[string]bool, len(tooling)),
	}
	for _, el := range core {
		if el != "" {
			p.core[el] = true
		}
	}
	for _, el := range tooling {
		if el != "" && !p.core[el] {
			p.tooling[el] = true
		}
	}
	return p
}

// DefaultProtectedSet returns the built-in protected set.
func DefaultProtectedSet() ProtectedSet {
	return NewProtectedSet(DefaultCore, DefaultTooling)
}

// Contains reports whether element is protected.
func (p ProtectedSet) Contains(element string) bool {
	return p.core[element] || p.tooling[element]
}

// IsCore reports whether element denotes the product's own engine.
func (p ProtectedSet) IsCore(element string) bool {
	return p.core[element]
}

// Len returns the number of protected keys.
func (p ProtectedSet) Len() int {
	return len(p.core) + len(p.tooling)
}

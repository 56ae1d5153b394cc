// Package catalog holds the declarative deprecated-API rule table used by the
// source scanner. Rules are data: adding one never touches scanner logic.
package catalog

import (
	"fmt"
	"regexp"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// Rule matches one legacy symbol or call pattern.
type Rule struct {
	Category extension.Category
	Pattern  *regexp.Regexp
	Label    string
}

// Catalog is an ordered rule table split into the host-API and library-API groups.
type Catalog struct {
	host    []Rule
	library []Rule
}

// hostRules are legacy host-framework symbols and call patterns.
var hostRules = [][2]string{
	{`\bJRequest::`, "JRequest (removed request API, use the input object)"},
	{`\bJError::`, "JError (removed error API, use exceptions)"},
	{`\bjimport\s*\(`, "jimport() loader (use autoloading)"},
	{`\bJFactory::getDBO\s*\(`, "JFactory::getDBO() (use getDbo() or the container)"},
	{`\bJFactory::getXMLParser\s*\(`, "JFactory::getXMLParser() (removed)"},
	{`\bJUtility::`, "JUtility (removed helper class)"},
	{`\bJParameter\b`, "JParameter (use the registry class)"},
	{`\bJDispatcher\b`, "JDispatcher (use the event dispatcher)"},
	{`->getEscaped\s*\(`, "getEscaped() on database driver (use escape())"},
	{`->query\s*\(\s*\)`, "query() on database driver (use execute())"},
	{`\bJSite\b`, "JSite application class (removed)"},
	{`\bDS\b\s*\.`, "DS directory separator constant (removed)"},
}

// libraryRules are legacy product shared-library symbols and call patterns.
var libraryRules = [][2]string{
	{`\bAcmeLegacyHelper::`, "AcmeLegacyHelper (removed in library 4.x)"},
	{`\bAcmeFactory::getInstance\s*\(`, "AcmeFactory::getInstance() (use the service container)"},
	{`\bacme_db_query\s*\(`, "acme_db_query() (use the query builder)"},
	{`\bAcmeConfig::getLegacy\w*\s*\(`, "AcmeConfig::getLegacy*() accessors (removed)"},
	{`\bACME_LEGACY_[A-Z_]+\b`, "ACME_LEGACY_* constants (removed)"},
	{`\bAcmeView(Legacy|Compat)\b`, "AcmeViewLegacy/AcmeViewCompat base views (removed)"},
	{`\bacme_load_library\s*\(`, "acme_load_library() loader (use autoloading)"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{}
	for _, r := range hostRules {
		c.mustAppend(extension.CategoryHostAPI, r[0], r[1])
	}
	for _, r := range libraryRules {
		c.mustAppend(extension.CategoryLibraryAPI, r[0], r[1])
	}
	return c
}

func (c *Catalog) mustAppend(cat extension.Category, pattern, label string) {
	if err := c.Append(cat, pattern, label); err != nil {
		panic(err)
	}
}

// Append compiles pattern and adds it to the group for cat.
func (c *Catalog) Append(cat extension.Category, pattern, label string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if label == "" {
		label = pattern
	}

	rule := Rule{Category: cat, Pattern: re, Label: label}
	switch cat {
	case extension.CategoryHostAPI:
		c.host = append(c.host, rule)
	case extension.CategoryLibraryAPI:
		c.library = append(c.library, rule)
	default:
		return fmt.Errorf("invalid category %q: must be %s or %s", cat, extension.CategoryHostAPI, extension.CategoryLibraryAPI)
	}
	return nil
}

// Rules returns every rule, host-API group first.
func (c *Catalog) Rules() []Rule {
	rules := make([]Rule, 0, len(c.host)+len(c.library))
	rules = append(rules, c.host...)
	rules = append(rules, c.library...)
	return rules
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int {
	return len(c.host) + len(c.library)
}

// Extra is a user-supplied rule from the configuration file.
type Extra struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
	Label    string `yaml:"label"`
}

// FromConfig returns the default catalog extended with extras.
func FromConfig(extras []Extra) (*Catalog, error) {
	c := Default()
	for i, e := range extras {
		if err := c.Append(extension.Category(e.Category), e.Pattern, e.Label); err != nil {
			return nil, fmt.Errorf("scan.patterns[%d]: %w", i, err)
		}
	}
	return c, nil
}

package catalog

import (
	"testing"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

func TestDefault_GroupsAndOrder(t *testing.T) {
	c := Default()

	if c.Len() != len(hostRules)+len(libraryRules) {
		t.Fatalf("Len() = %d, want %d", c.Len(), len(hostRules)+len(libraryRules))
	}

	rules := c.Rules()
	for i, r := range rules {
		want := extension.CategoryHostAPI
		if i >= len(hostRules) {
			want = extension.CategoryLibraryAPI
		}
		if r.Category != want {
			t.Errorf("rule %d (%s) category = %s, want %s", i, r.Label, r.Category, want)
		}
		if r.Label == "" {
			t.Errorf("rule %d has empty label", i)
		}
	}
}

func TestDefault_Matches(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		category extension.Category
	}{
		{"request api", `$id = JRequest::getInt('id');`, extension.CategoryHostAPI},
		{"jimport", `jimport( 'joomla.filesystem.file' );`, extension.CategoryHostAPI},
		{"query call", `$db->query();`, extension.CategoryHostAPI},
		{"legacy helper", `AcmeLegacyHelper::render($x);`, extension.CategoryLibraryAPI},
		{"legacy constant", `if (ACME_LEGACY_MODE) {}`, extension.CategoryLibraryAPI},
	}

	rules := Default().Rules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := false
			for _, r := range rules {
				if r.Pattern.MatchString(tt.src) {
					matched = true
					if r.Category != tt.category {
						t.Errorf("%q matched %s rule %q, want category %s", tt.src, r.Category, r.Label, tt.category)
					}
				}
			}
			if !matched {
				t.Errorf("%q matched no rule", tt.src)
			}
		})
	}
}

func TestDefault_DoesNotMatchModernCode(t *testing.T) {
	src := `$input = Factory::getApplication()->input; $db->setQuery($q)->execute();`
	for _, r := range Default().Rules() {
		if r.Pattern.MatchString(src) {
			t.Errorf("modern code matched rule %q", r.Label)
		}
	}
}

func TestAppend(t *testing.T) {
	c := Default()
	before := c.Len()

	if err := c.Append(extension.CategoryLibraryAPI, `\bAcmeOld\b`, "AcmeOld"); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if c.Len() != before+1 {
		t.Errorf("Len() = %d, want %d", c.Len(), before+1)
	}

	rules := c.Rules()
	last := rules[len(rules)-1]
	if last.Label != "AcmeOld" || last.Category != extension.CategoryLibraryAPI {
		t.Errorf("last rule = %+v, want AcmeOld library rule", last)
	}
}

func TestAppend_Errors(t *testing.T) {
	c := Default()

	if err := c.Append(extension.CategoryHostAPI, `(unclosed`, "bad"); err == nil {
		t.Error("Append() should fail on invalid regex")
	}
	if err := c.Append("style", `foo`, "foo"); err == nil {
		t.Error("Append() should fail on unknown category")
	}
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig([]Extra{
		{Category: "host-api", Pattern: `\bJHtml::_\('behavior\.mootools'`, Label: "mootools behavior"},
		{Category: "library-api", Pattern: `\bacme_old_api\(`},
	})
	if err != nil {
		t.Fatalf("FromConfig() failed: %v", err)
	}
	if c.Len() != Default().Len()+2 {
		t.Errorf("Len() = %d, want %d", c.Len(), Default().Len()+2)
	}

	rules := c.Rules()
	last := rules[len(rules)-1]
	if last.Label != `\bacme_old_api\(` {
		t.Errorf("label should default to pattern, got %q", last.Label)
	}

	if _, err := FromConfig([]Extra{{Category: "host-api", Pattern: "("}}); err == nil {
		t.Error("FromConfig() should fail on invalid pattern")
	}
}

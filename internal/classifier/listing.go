package classifier

import "github.com/blackwell-systems/addonsweep/internal/extension"

// Section is one status group of a listing.
type Section struct {
	Status  extension.Status
	Results []*extension.Result
}

// Listing is the result of one classification run, grouped by status.
type Listing struct {
	Sections []Section
	all      []*extension.Result
}

// NewListing groups results into the four sections in display order
// (incompatible, no-files, compatible, core). Order within a section follows
// the input order.
func NewListing(results []*extension.Result) *Listing {
	l := &Listing{all: results}
	for _, st := range extension.Statuses {
		sec := Section{Status: st}
		for _, r := range results {
			if r.Status == st {
				sec.Results = append(sec.Results, r)
			}
		}
		l.Sections = append(l.Sections, sec)
	}
	return l
}

// Group returns the results with status st.
func (l *Listing) Group(st extension.Status) []*extension.Result {
	for _, sec := range l.Sections {
		if sec.Status == st {
			return sec.Results
		}
	}
	return nil
}

// Results returns every result in inventory order.
func (l *Listing) Results() []*extension.Result {
	return l.all
}

// Len returns the total number of classified extensions.
func (l *Listing) Len() int {
	return len(l.all)
}

// Counts returns the number of results per status.
func (l *Listing) Counts() map[extension.Status]int {
	counts := make(map[extension.Status]int, len(extension.Statuses))
	for _, sec := range l.Sections {
		counts[sec.Status] = len(sec.Results)
	}
	return counts
}

// Find returns the result for the given extension id.
func (l *Listing) Find(id int64) (*extension.Result, bool) {
	for _, r := range l.all {
		if r.Record.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Selectable returns the results that may be offered for removal.
func (l *Listing) Selectable() []*extension.Result {
	var out []*extension.Result
	for _, r := range l.all {
		if r.Selectable() {
			out = append(out, r)
		}
	}
	return out
}

package crm

import (
	"strings"

	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
)

// DealIDSeparator joins the ids of every deal sharing one number.
const DealIDSeparator = " | "

// Entry is one (deal, number) pair of the exploded export.
type Entry struct {
	Deal    *model.Deal
	Raw     string
	Key     phone.Key
	Numeric bool
}

// Explode splits every deal's phone column into one entry per distinct
// number, in first-seen order. Deals without numbers produce no entries.
func Explode(deals []model.Deal) []Entry {
	var entries []Entry
	for i := range deals {
		d := &deals[i]
		seen := make(map[phone.Key]bool)
		for _, raw := range d.SplitPhones() {
			key, ok := phone.Normalize(raw)
			if ok {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			entries = append(entries, Entry{Deal: d, Raw: raw, Key: key, Numeric: ok})
		}
	}
	return entries
}

// Index answers which deals own a number.
type Index struct {
	deals   []model.Deal
	entries []Entry
	byKey   map[phone.Key][]int
	allIDs  map[phone.Key]string
	byID    map[string]*model.Deal
}

// NewIndex explodes deals and aggregates deal ids per number.
func NewIndex(deals []model.Deal) *Index {
	ix := &Index{
		deals:  deals,
		byKey:  make(map[phone.Key][]int),
		allIDs: make(map[phone.Key]string),
		byID:   make(map[string]*model.Deal, len(deals)),
	}
	for i := range ix.deals {
		d := &ix.deals[i]
		if _, dup := ix.byID[d.ID]; !dup && d.ID != "" {
			ix.byID[d.ID] = d
		}
	}

	ix.entries = Explode(ix.deals)
	ids := make(map[phone.Key][]string)
	for i, e := range ix.entries {
		// Withheld numbers ("Anonymous") are not numeric and never key a match.
		if !e.Numeric {
			continue
		}
		ix.byKey[e.Key] = append(ix.byKey[e.Key], i)
		ids[e.Key] = appendUnique(ids[e.Key], e.Deal.ID)
	}
	for k, v := range ids {
		ix.allIDs[k] = strings.Join(v, DealIDSeparator)
	}
	return ix
}

// Len returns the number of deals in the index.
func (ix *Index) Len() int { return len(ix.deals) }

// Entries returns the exploded export.
func (ix *Index) Entries() []Entry { return ix.entries }

// AllDealIDs returns the " | " joined ids of every deal owning k, or "".
func (ix *Index) AllDealIDs(k phone.Key) string { return ix.allIDs[k] }

// Deal looks a deal up by id.
func (ix *Index) Deal(id string) (*model.Deal, bool) {
	d, ok := ix.byID[id]
	return d, ok
}

// Match splits calls into those whose origin number belongs to at least one
// deal and those that do not. A known call yields one match per owning deal;
// every call lands in exactly one of the two results.
func (ix *Index) Match(calls []model.Call) (known []model.Match, unknown []model.Call) {
	for _, c := range calls {
		key, ok := c.Number()
		if !ok {
			unknown = append(unknown, c)
			continue
		}
		hits := ix.byKey[key]
		if len(hits) == 0 {
			unknown = append(unknown, c)
			continue
		}
		all := ix.allIDs[key]
		for _, i := range hits {
			known = append(known, model.Match{Call: c, Deal: ix.entries[i].Deal, AllDealIDs: all})
		}
	}
	return known, unknown
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// Package resolve separates single-identity profiles from numbers shared
// by several contacts, and groups pending calls by number for the stages.
package resolve

import (
	"strings"

	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
)

// IsMultiple reports whether a profile aggregates more than one identity.
// The database id marker only counts when checkDatabaseID is set.
func IsMultiple(p *model.Profile, checkDatabaseID bool) bool {
	if strings.Contains(p.Title, model.MultipleMarker) || strings.Contains(p.Address, model.MultipleMarker) {
		return true
	}
	return checkDatabaseID && p.UniqueDatabaseID == model.MultipleDatabaseID
}

// Split keeps single-identity profiles and turns every call of a multiple
// one into a "Common Name Error" unresolved entry.
func Split(profiles []model.Profile, checkDatabaseID bool) (single []model.Profile, multiple []model.Unresolved) {
	for i := range profiles {
		p := &profiles[i]
		if !IsMultiple(p, checkDatabaseID) {
			single = append(single, *p)
			continue
		}
		for _, c := range p.Calls {
			multiple = append(multiple, model.Unresolved{Call: c, Summary: model.SummaryCommonName})
		}
	}
	return single, multiple
}

// GroupByNumber groups pending calls with a numeric origin by key, in
// first-seen order. Calls with a non-numeric origin are returned apart.
func GroupByNumber(pending []model.Unresolved) (groups map[phone.Key][]model.Unresolved, order []phone.Key, rest []model.Unresolved) {
	groups = make(map[phone.Key][]model.Unresolved)
	for _, u := range pending {
		k, ok := u.Call.Number()
		if !ok {
			rest = append(rest, u)
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], u)
	}
	return groups, order, rest
}

// Unmatched passes calls on unchanged, tagging those without a summary as
// having no contact information.
func Unmatched(pending []model.Unresolved) []model.Unresolved {
	out := make([]model.Unresolved, 0, len(pending))
	for _, u := range pending {
		if u.Summary == "" {
			u.Summary = model.SummaryNoInformation
		}
		out = append(out, u)
	}
	return out
}

// Calls returns the calls of pending entries in order.
func Calls(pending []model.Unresolved) []model.Call {
	out := make([]model.Call, 0, len(pending))
	for _, u := range pending {
		out = append(out, u.Call)
	}
	return out
}

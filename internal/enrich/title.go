package enrich

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
)

// Place is a county and state a contact is targeted in.
type Place struct {
	County string
	State  string
}

// Title builds the deal title for a number from the names and places of
// every record matched to it. More than one distinct name yields the
// "Multiple entries" marker the resolver keys on.
func Title(number phone.Key, names []Name, places []Place) string {
	distinct := make(map[string]bool)
	var name string
	for _, n := range names {
		fl := FirstLast(n)
		if fl == "" || distinct[fl] {
			continue
		}
		distinct[fl] = true
		name = fl
	}
	if len(distinct) > 1 {
		return fmt.Sprintf("%s entries %s", model.MultipleMarker, number)
	}
	return strings.TrimSpace(name + " " + FormatPlaces(places))
}

// FormatPlaces renders the counties of each state as "A, B and C County, ST",
// joining states alphabetically with " and ".
func FormatPlaces(places []Place) string {
	byState := make(map[string][]string)
	var states []string
	for _, p := range places {
		county := titleCase(p.County)
		if county == "" {
			continue
		}
		st := strings.ToUpper(strings.TrimSpace(p.State))
		if _, ok := byState[st]; !ok {
			states = append(states, st)
		}
		byState[st] = appendUnique(byState[st], county)
	}
	sort.Strings(states)

	parts := make([]string, 0, len(states))
	for _, st := range states {
		part := formatCounties(byState[st]) + " County"
		if st != "" {
			part += ", " + st
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " and ")
}

func formatCounties(counties []string) string {
	n := len(counties)
	if n == 1 {
		return counties[0]
	}
	return strings.Join(counties[:n-1], ", ") + " and " + counties[n-1]
}

// CountyList is the "Deal - County" field: each distinct county and state
// pair once, pipe separated, in first-seen order.
func CountyList(places []Place) string {
	var out []string
	for _, p := range places {
		county := titleCase(p.County)
		if county == "" {
			continue
		}
		entry := county + " County"
		if st := strings.TrimSpace(p.State); st != "" {
			entry += ", " + st
		}
		out = appendUnique(out, entry)
	}
	return strings.Join(out, "|")
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

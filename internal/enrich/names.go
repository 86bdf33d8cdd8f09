package enrich

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name is the name columns of a contact row.
type Name struct {
	First  string
	Middle string
	Last   string
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// FirstLast is the name used in deal titles: first name alone, or first and
// last name. A row without a first name contributes nothing.
func FirstLast(n Name) string {
	first, last := strings.TrimSpace(n.First), strings.TrimSpace(n.Last)
	switch {
	case first == "":
		return ""
	case last == "":
		return titleCase(first)
	default:
		return titleCase(first) + " " + titleCase(last)
	}
}

// PersonName is the full display name including the middle name.
func PersonName(n Name) string {
	first, middle, last := strings.TrimSpace(n.First), strings.TrimSpace(n.Middle), strings.TrimSpace(n.Last)
	switch {
	case first == "":
		return ""
	case last == "":
		return strings.Join(strings.Fields(titleCase(first)), " ")
	case middle != "":
		return titleCase(first) + " " + titleCase(middle) + " " + titleCase(last)
	default:
		return titleCase(first) + " " + titleCase(last)
	}
}

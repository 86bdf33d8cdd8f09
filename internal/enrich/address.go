package enrich

import (
	"strings"

	"github.com/sells-group/callmatch/internal/model"
)

// Address is a mailing address row.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// MailingAddress formats the single distinct street address of a number as
// "street, city, state, zip, USA", keeping a position for blank parts.
// It returns "" when no row has a street and the multiple-address marker
// when the rows disagree.
func MailingAddress(addrs []Address) string {
	return mailingAddress(addrs, false)
}

// CompactMailingAddress is MailingAddress with blank parts left out, the
// shape the live contact database's address rows are exported in.
func CompactMailingAddress(addrs []Address) string {
	return mailingAddress(addrs, true)
}

func mailingAddress(addrs []Address, compact bool) string {
	var first *Address
	streets := make(map[string]bool)
	for i := range addrs {
		s := strings.TrimSpace(addrs[i].Street)
		if s == "" {
			continue
		}
		if first == nil {
			first = &addrs[i]
		}
		streets[s] = true
	}

	switch len(streets) {
	case 0:
		return ""
	case 1:
		parts := make([]string, 0, 5)
		for _, v := range []string{first.Street, first.City, first.State, first.PostalCode} {
			v = strings.TrimSpace(v)
			if compact && v == "" {
				continue
			}
			parts = append(parts, v)
		}
		return strings.Join(append(parts, "USA"), ", ")
	default:
		return model.MultipleAddresses
	}
}

// EmailSlots fills the email slots with the distinct non-blank addresses in
// order, dropping any beyond the slot count.
func EmailSlots(emails []string) [model.MaxEmails]string {
	var slots [model.MaxEmails]string
	seen := make(map[string]bool)
	n := 0
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		slots[n] = e
		n++
		if n == model.MaxEmails {
			break
		}
	}
	return slots
}

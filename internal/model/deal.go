package model

import "strings"

// Deal is one row of the CRM export: a single opportunity with its person's
// phone numbers and the dated stage columns the dispatch rules read.
type Deal struct {
	ID                  string `csv:"Deal - ID"`
	Title               string `csv:"Deal - Title"`
	PersonID            string `csv:"Person - ID"`
	ContactPerson       string `csv:"Deal - Contact person"`
	Phones              string `csv:"phone_number"`
	Phone1              string `csv:"Person - Phone 1"`
	Phone2              string `csv:"Person - Phone 2"`
	Phone3              string `csv:"Person - Phone 3"`
	Phone4              string `csv:"Person - Phone 4"`
	Phone5              string `csv:"Person - Phone 5"`
	Phone6              string `csv:"Person - Phone 6"`
	Phone7              string `csv:"Person - Phone 7"`
	Phone8              string `csv:"Person - Phone 8"`
	Phone9              string `csv:"Person - Phone 9"`
	Phone10             string `csv:"Person - Phone 10"`
	PhoneWork           string `csv:"Person - Phone - Work"`
	Owner               string `csv:"Deal - Owner"`
	Stage               string `csv:"Deal - Stage"`
	Pipeline            string `csv:"Deal - Pipeline"`
	TrackingFlag        string `csv:"Deal - CA Tracking Flag"`
	UniqueDatabaseID    string `csv:"Deal - Unique Database ID"`
	Status              string `csv:"Deal - Deal Status"`
	StageDate           string `csv:"Deal - Stage Date"`
	OfferReadyDate      string `csv:"Deal - Offer Ready Date"`
	OfferReadySmallDate string `csv:"Deal - Offer Ready - Small Date"`
}

// PersonPhones returns the ten numbered person phone slots in order.
func (d *Deal) PersonPhones() []string {
	return []string{
		d.Phone1, d.Phone2, d.Phone3, d.Phone4, d.Phone5,
		d.Phone6, d.Phone7, d.Phone8, d.Phone9, d.Phone10,
	}
}

// SetPersonPhone writes slot i (0-based) of the person phone slots.
func (d *Deal) SetPersonPhone(i int, v string) {
	slots := []*string{
		&d.Phone1, &d.Phone2, &d.Phone3, &d.Phone4, &d.Phone5,
		&d.Phone6, &d.Phone7, &d.Phone8, &d.Phone9, &d.Phone10,
	}
	if i >= 0 && i < len(slots) {
		*slots[i] = v
	}
}

// SplitPhones splits the multi-valued phone column, keeping the first
// occurrence of each value in order.
func (d *Deal) SplitPhones() []string {
	if strings.TrimSpace(d.Phones) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range strings.Split(d.Phones, ",") {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

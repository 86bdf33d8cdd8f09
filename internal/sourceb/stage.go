package sourceb

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
	"github.com/sells-group/callmatch/internal/resolve"
)

// Stage resolves pending calls against a database snapshot.
type Stage struct {
	contacts map[phone.Key][]string // number -> contact ids, first-seen order
	emails   map[string][]string
	details  map[string][]Detail
	serials  map[string]string
	policy   enrich.Policy
	tz       enrich.Timezones
}

// NewStage indexes a snapshot by number and contact id.
func NewStage(snap *Snapshot, policy enrich.Policy, tz enrich.Timezones) *Stage {
	s := &Stage{
		contacts: make(map[phone.Key][]string),
		emails:   make(map[string][]string),
		details:  make(map[string][]Detail),
		serials:  snap.Serials,
		policy:   policy,
		tz:       tz,
	}
	for _, p := range snap.Phones {
		k, ok := phone.Normalize(p.Number)
		if !ok || p.ContactID == "" {
			continue
		}
		s.contacts[k] = appendUnique(s.contacts[k], p.ContactID)
	}
	for _, e := range snap.Emails {
		s.emails[e.ContactID] = append(s.emails[e.ContactID], e.Email)
	}
	for _, d := range snap.Details {
		s.details[d.ContactID] = append(s.details[d.ContactID], d)
	}
	return s
}

// Name identifies the stage in logs and reports.
func (s *Stage) Name() string { return "source_b" }

// DealIDs returns the CRM deal ids recorded on the contacts owning k.
func (s *Stage) DealIDs(k phone.Key) []string {
	var ids []string
	for _, id := range s.contacts[k] {
		for _, d := range s.details[id] {
			if d.DealID != "" {
				ids = appendUnique(ids, d.DealID)
			}
		}
	}
	return ids
}

// Resolve matches each pending call's origin against the snapshot.
// Numbers shared by several contacts, names or addresses are passed on as
// common-name errors; unmatched calls keep the summary they arrived with.
func (s *Stage) Resolve(pending []model.Unresolved) (model.Outcome, error) {
	var (
		out      model.Outcome
		profiles []model.Profile
	)

	groups, order, rest := resolve.GroupByNumber(pending)
	for _, k := range order {
		ids := s.contacts[k]
		if len(ids) == 0 {
			out.Unresolved = append(out.Unresolved, resolve.Unmatched(groups[k])...)
			continue
		}
		profiles = append(profiles, s.profile(k, groups[k], ids))
	}
	out.Unresolved = append(out.Unresolved, resolve.Unmatched(rest)...)

	single, multiple := resolve.Split(profiles, true)
	out.Profiles = single
	out.Unresolved = append(out.Unresolved, multiple...)

	zap.L().Debug("sourceb: resolved",
		zap.Int("pending", len(pending)),
		zap.Int("profiles", len(out.Profiles)),
		zap.Int("common_name", len(multiple)),
		zap.Int("unresolved", len(out.Unresolved)),
	)
	return out, nil
}

func (s *Stage) profile(k phone.Key, pending []model.Unresolved, ids []string) model.Profile {
	pr := model.Profile{
		Source: model.SourceB,
		Number: k,
		Calls:  resolve.Calls(pending),
	}

	if len(ids) == 1 {
		pr.UniqueDatabaseID = ids[0]
	} else {
		pr.UniqueDatabaseID = model.MultipleDatabaseID
	}

	var (
		names   []enrich.Name
		places  []enrich.Place
		addrs   []enrich.Address
		emails  []string
		serials []string
	)
	for _, id := range ids {
		emails = append(emails, s.emails[id]...)
		for _, serial := range strings.Split(s.serials[id], "|") {
			if serial = strings.TrimSpace(serial); serial != "" {
				serials = appendUnique(serials, serial)
			}
		}
		for _, d := range s.details[id] {
			names = append(names, d.Name)
			places = append(places, d.Place)
			addrs = append(addrs, d.Address)
			if pr.AddressSource == "" && strings.TrimSpace(d.Address.Street) != "" {
				pr.AddressSource = d.AddressSource
			}
		}
	}

	pr.Title = enrich.Title(k, names, places)
	pr.County = enrich.CountyList(places)
	pr.Address = enrich.CompactMailingAddress(addrs)
	if len(names) > 0 {
		pr.PersonName = enrich.PersonName(names[0])
	}
	pr.Emails = enrich.EmailSlots(emails)
	pr.SerialNumber = strings.Join(serials, " | ")

	s.policy.Apply(&pr, s.tz)
	return pr
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

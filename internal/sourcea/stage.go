package sourcea

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
	"github.com/sells-group/callmatch/internal/resolve"
)

// AddressSource is the mailing-address provenance written on every
// profile this stage produces.
const AddressSource = "MineralHolders - Bottoms Up"

// Stage resolves pending calls against the contact export.
type Stage struct {
	records  []Record
	byPhone  map[phone.Key][]int
	bySerial map[string][]int
	policy   enrich.Policy
	tz       enrich.Timezones
}

// NewStage indexes records by every numeric phone slot and by serial.
func NewStage(records []Record, policy enrich.Policy, tz enrich.Timezones) *Stage {
	s := &Stage{
		records:  records,
		byPhone:  make(map[phone.Key][]int),
		bySerial: make(map[string][]int),
		policy:   policy,
		tz:       tz,
	}
	for i, r := range records {
		// A record listing the same number twice matches once.
		seen := make(map[phone.Key]bool)
		for _, raw := range r.Phones {
			k, ok := phone.Normalize(raw)
			if !ok || seen[k] {
				continue
			}
			seen[k] = true
			s.byPhone[k] = append(s.byPhone[k], i)
		}
		if serial := strings.TrimSpace(r.Serial); serial != "" {
			s.bySerial[serial] = append(s.bySerial[serial], i)
		}
	}
	return s
}

// Name identifies the stage in logs and reports.
func (s *Stage) Name() string { return "source_a" }

// Resolve matches each pending call's origin against the export. Numbers
// matching records with a single identity become profiles; the rest are
// passed on, tagged with why.
func (s *Stage) Resolve(pending []model.Unresolved) (model.Outcome, error) {
	var (
		out      model.Outcome
		profiles []model.Profile
	)

	groups, order, rest := resolve.GroupByNumber(pending)
	for _, k := range order {
		calls := groups[k]
		idx := s.byPhone[k]
		if len(idx) == 0 {
			out.Unresolved = append(out.Unresolved, resolve.Unmatched(calls)...)
			continue
		}
		profiles = append(profiles, s.profile(k, calls, idx))
	}
	out.Unresolved = append(out.Unresolved, resolve.Unmatched(rest)...)

	single, multiple := resolve.Split(profiles, false)
	out.Profiles = single
	out.Unresolved = append(out.Unresolved, multiple...)

	zap.L().Debug("sourcea: resolved",
		zap.Int("pending", len(pending)),
		zap.Int("profiles", len(out.Profiles)),
		zap.Int("common_name", len(multiple)),
		zap.Int("unresolved", len(out.Unresolved)),
	)
	return out, nil
}

func (s *Stage) profile(k phone.Key, pending []model.Unresolved, idx []int) model.Profile {
	pr := model.Profile{
		Source:        model.SourceA,
		Number:        k,
		Label:         enrich.LabelTargeted,
		AddressSource: AddressSource,
	}
	pr.Calls = resolve.Calls(pending)

	var (
		names   []enrich.Name
		places  []enrich.Place
		addrs   []enrich.Address
		serials []string
		emails  []string
	)
	for _, i := range idx {
		r := s.records[i]
		names = append(names, r.Name)
		places = append(places, r.Place)
		addrs = append(addrs, r.Address)
		if serial := strings.TrimSpace(r.Serial); serial != "" {
			serials = appendUnique(serials, serial)
		}
	}
	// Emails are taken slot by slot across records: every record's first
	// email before any second email.
	for slot := range len(s.records[idx[0]].Emails) {
		for _, i := range idx {
			emails = append(emails, s.records[i].Emails[slot])
		}
	}

	pr.Title = enrich.Title(k, names, places)
	pr.County = enrich.CountyList(places)
	pr.Address = enrich.MailingAddress(addrs)
	pr.PersonName = enrich.PersonName(names[0])
	pr.Emails = enrich.EmailSlots(emails)
	pr.SerialNumber = strings.Join(serials, " | ")
	pr.BUDatabaseID, pr.ContactGroupID, pr.Value = s.rollup(serials)

	s.policy.Apply(&pr, s.tz)
	return pr
}

// rollup collects the export ids sharing any of the number's serials, and
// the contact group and offer value of the first serial.
func (s *Stage) rollup(serials []string) (ids, group, value string) {
	if len(serials) == 0 {
		return "", "", ""
	}

	var all []string
	for _, serial := range serials {
		for _, i := range s.bySerial[serial] {
			if id := s.records[i].ID; id != "" {
				all = appendUnique(all, id)
			}
		}
	}

	first := s.bySerial[serials[0]]
	hasGroup := false
	for _, i := range first {
		if g := s.records[i].ContactGroupID; g != "" {
			if !hasGroup {
				group = g
			}
			hasGroup = true
		}
	}

	// Offers are stored per record but belong to the contact group, so a
	// group is counted once. Records without a group count as one group.
	var total float64
	counted := make(map[string]bool)
	for _, i := range first {
		r := s.records[i]
		if hasGroup {
			if counted[r.ContactGroupID] {
				continue
			}
			counted[r.ContactGroupID] = true
		}
		total += r.Offers
	}
	return strings.Join(all, "|"), group, strconv.FormatFloat(total, 'f', -1, 64)
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

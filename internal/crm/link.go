package crm

import (
	"strings"

	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/phone"
)

// DealLookup reports the CRM deal ids another contact store has recorded
// against a number.
type DealLookup interface {
	DealIDs(k phone.Key) []string
}

// Link moves unknown calls whose number is tied to an exported deal through
// lookup into the known set. Ids the export does not contain are ignored.
func (ix *Index) Link(unknown []model.Call, lookup DealLookup) (linked []model.Match, rest []model.Call) {
	for _, c := range unknown {
		key, ok := c.Number()
		if !ok {
			rest = append(rest, c)
			continue
		}

		var deals []*model.Deal
		var ids []string
		for _, id := range lookup.DealIDs(key) {
			d, found := ix.byID[cleanID(id)]
			if !found {
				continue
			}
			before := len(ids)
			ids = appendUnique(ids, d.ID)
			if len(ids) > before {
				deals = append(deals, d)
			}
		}
		if len(deals) == 0 {
			rest = append(rest, c)
			continue
		}

		all := strings.Join(ids, DealIDSeparator)
		for _, d := range deals {
			linked = append(linked, model.Match{Call: c, Deal: d, AllDealIDs: all})
		}
	}
	return linked, rest
}

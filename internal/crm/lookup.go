package crm

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/intake"
	"github.com/sells-group/callmatch/internal/phone"
)

// AssignDealIDs fills the empty "Deal ID" cells of a raw call import with
// the deals owning each row's origin number and stamps "Resolved By" with
// resolver on the rows it filled. It returns the number of rows filled.
func AssignDealIDs(t *fetcher.Table, ix *Index, resolver string) (int, error) {
	from := intake.Column(t, intake.ColFrom)
	if from < 0 {
		return 0, eris.New("crm: call import has no From/ANI column")
	}
	dealCol := t.Column(intake.ColDealID)
	resolvedCol := t.Column(intake.ColResolvedBy)

	filled := 0
	for i, row := range t.Rows {
		if t.Value(row, dealCol) != "" {
			continue
		}
		key, ok := phone.Normalize(t.Value(row, from))
		if !ok {
			continue
		}
		ids := ix.AllDealIDs(key)
		if ids == "" {
			continue
		}
		t.Set(i, dealCol, ids)
		t.Set(i, resolvedCol, resolver)
		filled++
	}
	return filled, nil
}

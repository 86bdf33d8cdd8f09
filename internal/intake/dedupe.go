package intake

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/phone"
)

// Dedupe sorts the rows of a raw call import by contact time and keeps the
// first row per origin number. Rows are returned with the input columns
// untouched; removed rows are returned separately.
func Dedupe(t *fetcher.Table) (unique, dupes *fetcher.Table, err error) {
	from := Column(t, ColFrom)
	if from < 0 {
		return nil, nil, eris.New("intake: call import has no From/ANI column")
	}
	when := Column(t, ColContactTime)

	times := make([]time.Time, len(t.Rows))
	for i, row := range t.Rows {
		if when >= 0 {
			times[i], _ = ParseContactTime(t.Value(row, when))
		}
	}

	order := make([]int, len(t.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return times[order[a]].Before(times[order[b]])
	})

	unique = &fetcher.Table{Header: t.Header}
	dupes = &fetcher.Table{Header: t.Header}
	seen := make(map[string]bool)
	for _, i := range order {
		row := t.Rows[i]
		key := phone.MustNormalize(t.Value(row, from))
		if seen[key] {
			dupes.Rows = append(dupes.Rows, row)
			continue
		}
		seen[key] = true
		unique.Rows = append(unique.Rows, row)
	}
	return unique, dupes, nil
}

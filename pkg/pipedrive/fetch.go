package pipedrive

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FetchDeals pages through every deal, issuing batchSize page requests at a
// time with start offsets pageSize apart. Pages are consumed in request
// order; fetching stops at the first page that reports no more items or
// that failed. A failure on the very first page is returned as an error.
func FetchDeals(ctx context.Context, c Client, pageSize, batchSize int) ([]Deal, error) {
	if pageSize < 1 {
		pageSize = 500
	}
	if batchSize < 1 {
		batchSize = 1
	}

	var deals []Deal
	start := 0
	for {
		pages := make([]*DealsPage, batchSize)
		errs := make([]error, batchSize)

		// Every slot is waited on: a failed page only ends the walk once
		// the pages before it have been consumed.
		var wg sync.WaitGroup
		for i := range batchSize {
			offset := start + i*pageSize
			wg.Go(func() {
				page, err := c.DealsPage(ctx, offset, pageSize)
				if err == nil && page == nil {
					err = eris.Errorf("pipedrive: empty response for start %d", offset)
				}
				pages[i], errs[i] = page, err
			})
		}
		wg.Wait()

		for i := range batchSize {
			if errs[i] != nil {
				if start == 0 && i == 0 {
					return nil, eris.Wrap(errs[i], "pipedrive: fetch deals")
				}
				zap.L().Warn("pipedrive: page request failed, stopping",
					zap.Int("start", start+i*pageSize),
					zap.Error(errs[i]),
				)
				return deals, nil
			}
			deals = append(deals, pages[i].Deals...)
			if !pages[i].Pagination.MoreItemsInCollection {
				zap.L().Info("pipedrive: fetched deals", zap.Int("deals", len(deals)))
				return deals, nil
			}
		}
		start += batchSize * pageSize
	}
}

// OptionLabels maps option ids to labels for the field with the given id.
func OptionLabels(fields []DealField, fieldID int) map[string]string {
	labels := make(map[string]string)
	for _, f := range fields {
		if f.ID != fieldID {
			continue
		}
		for _, o := range f.Options {
			labels[o.ID.String()] = o.Label
		}
	}
	return labels
}

// FieldKey returns the key of the field with the given id, or "".
func FieldKey(fields []DealField, fieldID int) string {
	for _, f := range fields {
		if f.ID == fieldID {
			return f.Key
		}
	}
	return ""
}

// ResolveOptions turns a comma separated list of option ids into their
// labels, dropping ids without one.
func ResolveOptions(raw string, labels map[string]string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if l, ok := labels[strings.TrimSpace(id)]; ok {
			out = append(out, l)
		}
	}
	return strings.Join(out, ", ")
}

package crm

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/model"
	"github.com/sells-group/callmatch/internal/resilience"
	"github.com/sells-group/callmatch/pkg/pipedrive"
)

// maxPersonPhones is the number of person phone slots in the export.
const maxPersonPhones = 10

// FieldKeys are the custom-field keys read off each API deal.
type FieldKeys struct {
	TrackingFlag    string
	DealStatus      string
	UniqueDBID      string
	OfferReady      string
	OfferReadySmall string
}

// Catalog resolves the ids an API deal carries into labels.
type Catalog struct {
	TrackingFlags map[string]string
	DealStatuses  map[string]string
	Pipelines     map[int]string
	Stages        map[int]string
}

// RefreshOptions configures Refresh.
type RefreshOptions struct {
	PageSize            int
	BatchSize           int
	TrackingFlagFieldID int
	DealStatusFieldID   int
	Keys                FieldKeys
	// Retry applies to the catalog lookups only. Deal pages are never retried.
	Retry resilience.RetryConfig
}

// Refresh pulls every deal from the CRM API and flattens it into export
// rows. Keys left blank for the tracking flag and deal status are looked
// up from their field ids.
func Refresh(ctx context.Context, c pipedrive.Client, opts RefreshOptions) ([]model.Deal, error) {
	retry := opts.Retry
	retry.ShouldRetry = retryableAPIError
	retry.OnRetry = resilience.RetryLogger("crm", "catalog")

	fields, err := resilience.DoVal(ctx, retry, c.DealFields)
	if err != nil {
		return nil, eris.Wrap(err, "crm: load deal fields")
	}
	pipelines, err := resilience.DoVal(ctx, retry, c.Pipelines)
	if err != nil {
		return nil, eris.Wrap(err, "crm: load pipelines")
	}
	stages, err := resilience.DoVal(ctx, retry, c.Stages)
	if err != nil {
		return nil, eris.Wrap(err, "crm: load stages")
	}

	keys := opts.Keys
	if keys.TrackingFlag == "" {
		keys.TrackingFlag = pipedrive.FieldKey(fields, opts.TrackingFlagFieldID)
	}
	if keys.DealStatus == "" {
		keys.DealStatus = pipedrive.FieldKey(fields, opts.DealStatusFieldID)
	}

	cat := Catalog{
		TrackingFlags: pipedrive.OptionLabels(fields, opts.TrackingFlagFieldID),
		DealStatuses:  pipedrive.OptionLabels(fields, opts.DealStatusFieldID),
		Pipelines:     make(map[int]string, len(pipelines)),
		Stages:        make(map[int]string, len(stages)),
	}
	for _, p := range pipelines {
		cat.Pipelines[p.ID] = p.Name
	}
	for _, s := range stages {
		cat.Stages[s.ID] = s.Name
	}

	raw, err := pipedrive.FetchDeals(ctx, c, opts.PageSize, opts.BatchSize)
	if err != nil {
		return nil, err
	}
	deals := Flatten(raw, keys, cat)
	zap.L().Info("crm: refreshed export", zap.Int("deals", len(deals)))
	return deals, nil
}

func retryableAPIError(err error) bool {
	var apiErr *pipedrive.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

// Flatten converts API deals into export rows.
func Flatten(raw []pipedrive.Deal, keys FieldKeys, cat Catalog) []model.Deal {
	out := make([]model.Deal, 0, len(raw))
	for i := range raw {
		d := &raw[i]
		row := model.Deal{
			ID:                  strconv.FormatInt(d.ID, 10),
			Title:               d.Title,
			Stage:               cat.Stages[d.StageID],
			Pipeline:            cat.Pipelines[d.PipelineID],
			TrackingFlag:        pipedrive.ResolveOptions(d.Field(keys.TrackingFlag), cat.TrackingFlags),
			UniqueDatabaseID:    d.Field(keys.UniqueDBID),
			StageDate:           datePart(d.StageChangeTime),
			OfferReadyDate:      d.Field(keys.OfferReady),
			OfferReadySmallDate: d.Field(keys.OfferReadySmall),
		}
		row.Status = pipedrive.ResolveOptions(d.Field(keys.DealStatus), cat.DealStatuses)
		if d.User != nil {
			row.Owner = d.User.Name
		}
		if d.Person != nil {
			row.PersonID = strconv.FormatInt(d.Person.Value, 10)
			row.ContactPerson = d.Person.Name
			setPhones(&row, d.Person.Phones)
		}
		out = append(out, row)
	}
	return out
}

// setPhones fills the multi-valued phone column and the numbered slots
// with the person's distinct numbers in listed order.
func setPhones(row *model.Deal, phones []pipedrive.Phone) {
	var all, work []string
	seen := make(map[string]bool)
	for _, p := range phones {
		v := strings.TrimSpace(p.Value)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		all = append(all, v)
		if strings.EqualFold(p.Label, "work") {
			work = append(work, v)
		}
	}
	row.Phones = strings.Join(all, ", ")
	row.PhoneWork = strings.Join(work, ", ")
	for i := 0; i < len(all) && i < maxPersonPhones; i++ {
		row.SetPersonPhone(i, all[i])
	}
}

func datePart(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

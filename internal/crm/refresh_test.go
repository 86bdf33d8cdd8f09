package crm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callmatch/internal/resilience"
	"github.com/sells-group/callmatch/pkg/pipedrive"
)

type fakeCRM struct {
	fieldsErr   error
	fieldsFails int
	fieldCalls  int
	deals       []pipedrive.Deal
}

func (f *fakeCRM) DealFields(context.Context) ([]pipedrive.DealField, error) {
	f.fieldCalls++
	if f.fieldsErr != nil && f.fieldCalls <= f.fieldsFails {
		return nil, f.fieldsErr
	}
	return []pipedrive.DealField{
		{ID: 12560, Key: "flagkey", Options: []pipedrive.Option{{ID: json.Number("1"), Label: "PA - Joyce"}}},
		{ID: 12496, Key: "statuskey", Options: []pipedrive.Option{{ID: json.Number("7"), Label: "Open"}, {ID: json.Number("8"), Label: "Hot"}}},
	}, nil
}

func (f *fakeCRM) Pipelines(context.Context) ([]pipedrive.Pipeline, error) {
	return []pipedrive.Pipeline{{ID: 1, Name: "Sales Pipeline"}}, nil
}

func (f *fakeCRM) Stages(context.Context) ([]pipedrive.Stage, error) {
	return []pipedrive.Stage{{ID: 3, Name: "Offer Ready", PipelineID: 1}}, nil
}

func (f *fakeCRM) DealsPage(_ context.Context, start, _ int) (*pipedrive.DealsPage, error) {
	if start > 0 {
		return &pipedrive.DealsPage{}, nil
	}
	return &pipedrive.DealsPage{Deals: f.deals}, nil
}

func TestRefresh(t *testing.T) {
	f := &fakeCRM{deals: []pipedrive.Deal{{
		ID:              42,
		Title:           "Smith",
		StageID:         3,
		PipelineID:      1,
		StageChangeTime: "2024-05-01 08:00:00",
		User:            &pipedrive.User{Name: "Ken"},
		Person: &pipedrive.Person{Value: 77, Name: "John Smith", Phones: []pipedrive.Phone{
			{Value: "5551234567", Label: "mobile"},
			{Value: " 5559990000 ", Label: "work"},
			{Value: "5551234567", Label: "home"},
		}},
		Fields: map[string]any{
			"flagkey":   "1",
			"statuskey": "7,8",
			"dbkey":     "DB-9",
			"offerkey":  "2024-04-01",
		},
	}, {ID: 43, Title: "No person"}}}

	deals, err := Refresh(context.Background(), f, RefreshOptions{
		PageSize:            500,
		BatchSize:           2,
		TrackingFlagFieldID: 12560,
		DealStatusFieldID:   12496,
		Keys:                FieldKeys{UniqueDBID: "dbkey", OfferReady: "offerkey"},
	})
	require.NoError(t, err)
	require.Len(t, deals, 2)

	d := deals[0]
	assert.Equal(t, "42", d.ID)
	assert.Equal(t, "77", d.PersonID)
	assert.Equal(t, "John Smith", d.ContactPerson)
	assert.Equal(t, "Ken", d.Owner)
	assert.Equal(t, "Offer Ready", d.Stage)
	assert.Equal(t, "Sales Pipeline", d.Pipeline)
	assert.Equal(t, "PA - Joyce", d.TrackingFlag)
	assert.Equal(t, "Open, Hot", d.Status)
	assert.Equal(t, "DB-9", d.UniqueDatabaseID)
	assert.Equal(t, "2024-05-01", d.StageDate)
	assert.Equal(t, "2024-04-01", d.OfferReadyDate)
	assert.Equal(t, "5551234567, 5559990000", d.Phones)
	assert.Equal(t, "5559990000", d.PhoneWork)
	assert.Equal(t, "5551234567", d.Phone1)
	assert.Equal(t, "5559990000", d.Phone2)
	assert.Empty(t, d.Phone3)

	assert.Equal(t, "43", deals[1].ID)
	assert.Empty(t, deals[1].PersonID)
	assert.Empty(t, deals[1].Phones)
}

func TestRefresh_FieldsError(t *testing.T) {
	_, err := Refresh(context.Background(), &fakeCRM{fieldsErr: errors.New("401"), fieldsFails: 5}, RefreshOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm: load deal fields")
}

func TestRefresh_RetriesThrottledCatalog(t *testing.T) {
	f := &fakeCRM{fieldsErr: &pipedrive.APIError{StatusCode: 429, Body: "slow down"}, fieldsFails: 2}
	_, err := Refresh(context.Background(), f, RefreshOptions{
		PageSize:  10,
		BatchSize: 1,
		Retry:     resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.fieldCalls)
}

func TestRefresh_ClientErrorNotRetried(t *testing.T) {
	f := &fakeCRM{fieldsErr: &pipedrive.APIError{StatusCode: 401, Body: "unauthorized"}, fieldsFails: 5}
	_, err := Refresh(context.Background(), f, RefreshOptions{
		Retry: resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	require.Error(t, err)
	assert.Equal(t, 1, f.fieldCalls)
}

package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callmatch/internal/model"
)

var today = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, designations, conditions string) *Engine {
	t.Helper()
	tables, err := ParseTables([]byte(designations), []byte(conditions))
	require.NoError(t, err)
	return NewEngine(tables, WithClock(func() time.Time { return today }))
}

func salesDeal(stage, offerReady string) *model.Deal {
	return &model.Deal{
		ID:             "100",
		Pipeline:       "Sales Pipeline",
		Stage:          stage,
		Owner:          "Stephanie",
		TrackingFlag:   "PA - Joyce",
		OfferReadyDate: offerReady,
	}
}

func TestAssign_DateConditionHolds(t *testing.T) {
	e := newTestEngine(t, designationsJSON, conditionsJSON)

	got, err := e.Assign(salesDeal("Offer Ready", "2024-05-16")) // 45 days
	require.NoError(t, err)
	assert.Equal(t, Assignment{Pipeline: 1, Subject: "Stale offer", Owner: "PA - Joyce"}, got)
}

func TestAssign_DateConditionFailsFallsThrough(t *testing.T) {
	e := newTestEngine(t, designationsJSON, conditionsJSON)

	got, err := e.Assign(salesDeal("Offer Ready", "2024-06-20")) // 10 days
	require.NoError(t, err)
	assert.Equal(t, "Fresh offer", got.Subject)
	assert.Equal(t, "Stephanie", got.Owner)
}

func TestAssign_BlankDateNeverHolds(t *testing.T) {
	e := newTestEngine(t, designationsJSON, conditionsJSON)

	got, err := e.Assign(salesDeal("Offer Ready", ""))
	require.NoError(t, err)
	assert.Equal(t, "Fresh offer", got.Subject)
}

func TestAssign_LessThan(t *testing.T) {
	cond := `{"1": [{"Offer Ready < 7": ["Deal - Stage", "New offer", "Maria"]}]}`
	e := newTestEngine(t, designationsJSON, cond)

	got, err := e.Assign(salesDeal("Offer Ready", "2024-06-28 09:30:00"))
	require.NoError(t, err)
	assert.Equal(t, Assignment{Pipeline: 1, Subject: "New offer", Owner: "Maria"}, got)

	got, err = e.Assign(salesDeal("Offer Ready", "2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, "Call back", got.Subject)
}

func TestAssign_FirstExactMatchKept(t *testing.T) {
	cond := `{"1": [
		{"Negotiation": ["Deal - Stage", "First", "None"]},
		{"negotiation": ["Deal - Stage", "Second", "None"]}
	]}`
	e := newTestEngine(t, designationsJSON, cond)

	got, err := e.Assign(salesDeal("Negotiation", ""))
	require.NoError(t, err)
	assert.Equal(t, "First", got.Subject)
	assert.Empty(t, got.Owner)
}

func TestAssign_DateWinsOverEarlierExactMatch(t *testing.T) {
	cond := `{"1": [
		{"Offer Ready": ["Deal - Stage", "Exact", "None"]},
		{"Offer Ready > 30": ["Deal - Stage", "Dated", "None"]}
	]}`
	e := newTestEngine(t, designationsJSON, cond)

	got, err := e.Assign(salesDeal("Offer Ready", "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "Dated", got.Subject)
}

func TestAssign_DefaultWhenNothingMatches(t *testing.T) {
	e := newTestEngine(t, designationsJSON, conditionsJSON)

	got, err := e.Assign(salesDeal("Qualifying", ""))
	require.NoError(t, err)
	assert.Equal(t, Assignment{Pipeline: 1, Subject: "Call back", Owner: "Stephanie"}, got)
}

func TestAssign_DefaultNoneSubject(t *testing.T) {
	des := `{"3": ["Acquisitions", "None", "CA Tracking Flag"]}`
	e := newTestEngine(t, des, `{}`)

	got, err := e.Assign(&model.Deal{Pipeline: "Land Acquisitions", TrackingFlag: "PA - Joyce"})
	require.NoError(t, err)
	assert.Equal(t, Assignment{Pipeline: 3, Subject: "", Owner: "PA - Joyce"}, got)
}

func TestAssign_SalesRequiresExactPipeline(t *testing.T) {
	e := newTestEngine(t, designationsJSON, `{}`)

	id, ok := e.Pipeline("sales pipeline")
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = e.Pipeline("Junior Sales Pipeline")
	assert.False(t, ok)

	id, ok = e.Pipeline("Acquisitions - West")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestAssign_FirstDesignationInDocumentWins(t *testing.T) {
	desig := `{
  "9": ["Mineral", "Mineral check in", "Deal Owner"],
  "3": ["Mineral Rights", "Rights check in", "None"]
}`
	e := newTestEngine(t, desig, `{}`)

	id, ok := e.Pipeline("Mineral Rights Pipeline")
	require.True(t, ok)
	assert.Equal(t, 9, id)

	got, err := e.Assign(&model.Deal{Pipeline: "Mineral Rights Pipeline", Owner: "Ken"})
	require.NoError(t, err)
	assert.Equal(t, Assignment{Pipeline: 9, Subject: "Mineral check in", Owner: "Ken"}, got)
}

func TestAssign_NoPipeline(t *testing.T) {
	e := newTestEngine(t, designationsJSON, conditionsJSON)

	got, err := e.Assign(&model.Deal{Pipeline: "Marketing"})
	require.NoError(t, err)
	assert.Equal(t, Assignment{}, got)
}

func TestAssign_UnparsableDate(t *testing.T) {
	e := newTestEngine(t, designationsJSON, conditionsJSON)

	_, err := e.Assign(salesDeal("Offer Ready", "next week"))
	require.Error(t, err)
	var re *RuleError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Pipeline)
	assert.Equal(t, "Offer Ready > 30", re.Key)
}

func TestAssign_OtherColumns(t *testing.T) {
	cond := `{"2": [{"Open": ["Deal - Deal Status", "Status follow-up", "Deal Owner"]}]}`
	e := newTestEngine(t, designationsJSON, cond)

	got, err := e.Assign(&model.Deal{Pipeline: "Acquisitions", Status: "open", Owner: "Ken"})
	require.NoError(t, err)
	assert.Equal(t, Assignment{Pipeline: 2, Subject: "Status follow-up", Owner: "Ken"}, got)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 6, 29, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 6, 30, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(a, b))
	assert.Equal(t, 0, daysBetween(b, b))
	assert.Equal(t, -1, daysBetween(b, a))
}

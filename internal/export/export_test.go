package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callmatch/internal/cascade"
	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/model"
)

var at = time.Date(2024, 6, 29, 10, 30, 0, 0, time.UTC)

func cell(t *testing.T, tbl *fetcher.Table, row int, col string) string {
	t.Helper()
	i := tbl.Index(col)
	require.GreaterOrEqual(t, i, 0, "column %q", col)
	return tbl.Value(tbl.Rows[row], i)
}

func TestColumnCounts(t *testing.T) {
	assert.Len(t, NewDealColumns, 48)
	assert.Equal(t, "Person - Email 17", NewDealColumns[34])
	assert.Equal(t, "Deal - Value", NewDealColumns[47])
	assert.Len(t, NoResultColumns, 21)
	assert.Len(t, AddedPhoneColumns, 13)
}

func TestNewDeals(t *testing.T) {
	p := model.Profile{
		Source:         model.SourceA,
		Number:         "5551234567",
		Calls:          []model.Call{{From: "5551234567"}},
		CreatedAt:      at,
		Title:          "John Smith Harris County, TX",
		Label:          "TARGETED MARKETING",
		Summary:        model.SummaryCompleted,
		AddressSource:  "MineralHolders - Bottoms Up",
		BUDatabaseID:   "1|2",
		ContactGroupID: "G1",
		Value:          "157",
	}
	p.Emails[0] = "a@x.com"
	p.Emails[16] = "q@x.com"

	tbl := NewDeals([]model.Profile{p})
	require.Len(t, tbl.Rows, 1)
	assert.Len(t, tbl.Rows[0], len(NewDealColumns))

	assert.Equal(t, "2024-06-29 10:30:00", cell(t, tbl, 0, "Deal - Deal creation date"))
	assert.Equal(t, "John Smith Harris County, TX", cell(t, tbl, 0, "Deal - Title"))
	assert.Equal(t, "Abandoned Call", cell(t, tbl, 0, "Deal - Inbound Medium"))
	assert.Equal(t, "a@x.com", cell(t, tbl, 0, "Person - Email"))
	assert.Equal(t, "a@x.com", cell(t, tbl, 0, "Person - Email 1"))
	assert.Equal(t, "q@x.com", cell(t, tbl, 0, "Person - Email 17"))
	assert.Equal(t, "5551234567", cell(t, tbl, 0, "Person - Phone"))
	assert.Equal(t, "5551234567", cell(t, tbl, 0, "Person - Phone 1"))
	assert.Equal(t, "Mineral Owner", cell(t, tbl, 0, "Person - Phone 1 - Data Source"))
	assert.Equal(t, "MineralHolders - Bottoms Up", cell(t, tbl, 0, "Person - Mailing Address - Data Source"))
	assert.Equal(t, "1|2", cell(t, tbl, 0, "Deal - BU Database ID"))
	assert.Equal(t, "157", cell(t, tbl, 0, "Deal - Value"))
	assert.Equal(t, "Completed", cell(t, tbl, 0, "Deal - Deal Summary"))
}

func TestNoResults_WithheldNumber(t *testing.T) {
	p := model.Profile{
		Calls:   []model.Call{{From: " Anonymous "}},
		Title:   "No Name Anonymous",
		Summary: model.SummaryNoInformation,
	}
	tbl := NoResults([]model.Profile{p})
	require.Len(t, tbl.Rows, 1)
	assert.Len(t, tbl.Rows[0], len(NoResultColumns))
	assert.Equal(t, "Anonymous", cell(t, tbl, 0, "Person - Phone"))
	assert.Equal(t, "", cell(t, tbl, 0, "Deal - Deal creation date"))
	assert.Equal(t, "No Information in Email", cell(t, tbl, 0, "Deal - Deal Summary"))
}

func followUp(dealID, all, from string, d *model.Deal) model.FollowUp {
	if d == nil {
		d = &model.Deal{ID: dealID}
	}
	return model.FollowUp{
		Match:      model.Match{Call: model.Call{From: from, ContactTime: at}, Deal: d, AllDealIDs: all},
		Subject:    "Call back " + dealID,
		AssignedTo: "Ken",
		Note:       "note",
	}
}

func TestFollowUps_DedupeOnDateAndDeals(t *testing.T) {
	tbl := FollowUps([]model.FollowUp{
		followUp("100", "100 | 101", "5550000001", nil),
		followUp("101", "100 | 101", "5550000001", nil),
		followUp("200", "200", "5550000002", nil),
	})
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"2024-06-29 10:30:00", "100 | 101", "Call", "Call back 100", "note", "To do", "Ken"}, tbl.Rows[0])
	assert.Equal(t, "200", cell(t, tbl, 1, "Deal - ID"))
}

func TestAddedPhones(t *testing.T) {
	has := &model.Deal{ID: "1", PersonID: "p1", Phone1: "(555) 000-0001"}
	missing := &model.Deal{ID: "2", PersonID: "p2", Phone1: "5559998888", PhoneWork: "5559998888"}
	full := &model.Deal{ID: "3"}
	for i := 0; i < 10; i++ {
		full.SetPersonPhone(i, "555000100"+string(rune('0'+i)))
	}

	tbl := AddedPhones([]model.FollowUp{
		followUp("1", "1", "15550000001", has),
		followUp("2", "2", "5550000001", missing),
		followUp("2", "2", "5550000001", missing),
		followUp("3", "3", "5550000001", full),
		followUp("4", "4", "Anonymous", nil),
	})

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "2", cell(t, tbl, 0, "Deal - ID"))
	assert.Equal(t, "p2", cell(t, tbl, 0, "Person - ID"))
	assert.Equal(t, "5559998888, 5550000001", cell(t, tbl, 0, "Person - Phone - Work"))
	assert.Equal(t, "5559998888", cell(t, tbl, 0, "Person - Phone 1"))
	assert.Equal(t, "5550000001", cell(t, tbl, 0, "Person - Phone 2"))
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	rp := &cascade.Report{
		FollowUps: []model.FollowUp{followUp("100", "100", "5550000001", &model.Deal{ID: "100", Phone1: "5550000001"})},
		NoResults: []model.Profile{{Number: "5550000008", Calls: []model.Call{{From: "5550000008"}}, Title: "No Name 5550000008"}},
	}
	files, err := w.WriteReport(3, rp)
	require.NoError(t, err)

	assert.Empty(t, files.NewDeals)
	assert.Empty(t, files.AddedPhones)
	assert.Equal(t, filepath.Join(dir, "follow_up", "3. PIPEDRIVE IMPORT - FOLLOWUP.xlsx"), files.FollowUp)
	assert.Equal(t, filepath.Join(dir, "no_result", "3. PIPEDRIVE IMPORT - NO RESULT.xlsx"), files.NoResult)

	_, err = os.Stat(w.Paths(3).NewDeals)
	assert.True(t, os.IsNotExist(err))

	rows, err := fetcher.ReadXLSX(files.NoResult, fetcher.XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Deal - Deal creation date", rows[0][0])
	assert.Equal(t, "No Name 5550000008", rows[1][1])
}

func TestWriteTable(t *testing.T) {
	w := NewWriter(t.TempDir())
	tbl := &fetcher.Table{Header: []string{"From", "Deal ID"}, Rows: [][]string{{"5550000001", "100"}}}

	path, err := w.WriteTable(DirLookup, "Lookup Output", "/data/calls/RC 27.csv", tbl)
	require.NoError(t, err)
	assert.Equal(t, "(Lookup Output) RC 27.xlsx", filepath.Base(path))

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"From", "Deal ID"}, {"5550000001", "100"}}, rows)
}

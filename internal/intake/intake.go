// Package intake turns call-import tables into call records.
package intake

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/model"
)

// Canonical column names of a call import.
const (
	ColContactTime = "Contact Time"
	ColFrom        = "From"
	ColTo          = "To"
	ColText        = "Text"
	ColCategory    = "Category"
	ColDataSource  = "Data Source"
	ColTeam        = "Team"
	ColTeamMember  = "Team Member 2"
	ColDealID      = "Deal ID"
	ColResolvedBy  = "Resolved By"
)

// aliases maps the telephony export headers onto the canonical names.
var aliases = map[string][]string{
	ColFrom: {"ANI"},
	ColTo:   {"DNIS"},
	ColText: {"Contact Details"},
}

// Column finds a canonical column in t, falling back to its aliases.
func Column(t *fetcher.Table, name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	for _, alias := range aliases[name] {
		if i := t.Index(alias); i >= 0 {
			return i
		}
	}
	return -1
}

// ReadCalls reads the import at path and parses its rows into calls.
func ReadCalls(ctx context.Context, path string) ([]model.Call, error) {
	t, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: read %s", path)
	}
	return ParseCalls(t)
}

// ParseCalls maps table rows onto calls. The origin column is required;
// every other column is optional. Unparsable contact times are logged and
// left zero.
func ParseCalls(t *fetcher.Table) ([]model.Call, error) {
	cols := map[string]int{}
	for _, name := range []string{
		ColContactTime, ColFrom, ColTo, ColText, ColCategory,
		ColDataSource, ColTeam, ColTeamMember, ColDealID,
	} {
		cols[name] = Column(t, name)
	}
	if cols[ColFrom] < 0 {
		return nil, eris.New("intake: call import has no From/ANI column")
	}

	calls := make([]model.Call, 0, len(t.Rows))
	for i, row := range t.Rows {
		c := model.Call{
			Row:        i + 1,
			From:       t.Value(row, cols[ColFrom]),
			To:         t.Value(row, cols[ColTo]),
			Text:       t.Value(row, cols[ColText]),
			Category:   t.Value(row, cols[ColCategory]),
			DataSource: t.Value(row, cols[ColDataSource]),
			Team:       t.Value(row, cols[ColTeam]),
			TeamMember: t.Value(row, cols[ColTeamMember]),
			DealID:     cleanID(t.Value(row, cols[ColDealID])),
		}

		if raw := t.Value(row, cols[ColContactTime]); raw != "" {
			ts, err := ParseContactTime(raw)
			if err != nil {
				zap.L().Warn("intake: unparsable contact time",
					zap.Int("row", c.Row),
					zap.String("value", raw),
				)
			}
			c.ContactTime = ts
		}

		calls = append(calls, c)
	}
	return calls, nil
}

// Day-first layouts are tried before month-first ones.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 3:04:05 PM",
	"02/01/2006 3:04 PM",
	"02/01/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006",
	"2/1/06 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04:05 PM",
	"01/02/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04",
	"Jan 2, 2006 3:04 PM",
	"2 Jan 2006 15:04",
	time.RFC3339,
}

// ParseContactTime parses the mixed timestamp formats found in call imports,
// reading ambiguous numeric dates day first. Excel serial numbers are accepted.
func ParseContactTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return xlsx.TimeFromExcelTime(f, false).Round(time.Second), nil
	}
	return time.Time{}, eris.Errorf("intake: unrecognised contact time %q", raw)
}

// cleanID drops the float tail spreadsheets add to whole-number ids.
func cleanID(s string) string {
	return strings.TrimSuffix(s, ".0")
}

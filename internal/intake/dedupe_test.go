package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callmatch/internal/fetcher"
)

func TestDedupe(t *testing.T) {
	tbl := &fetcher.Table{
		Header: []string{"Contact Time", "ANI", "Note"},
		Rows: [][]string{
			{"2024-03-05 09:00:00", "5551234567", "later"},
			{"2024-03-04 09:00:00", "15551234567", "earliest"},
			{"2024-03-04 10:00:00", "5559990000", "other"},
			{"2024-03-06 09:00:00", "(555) 999-0000", "dupe of other"},
		},
	}

	unique, dupes, err := Dedupe(tbl)
	require.NoError(t, err)

	require.Len(t, unique.Rows, 2)
	assert.Equal(t, "earliest", unique.Rows[0][2])
	assert.Equal(t, "other", unique.Rows[1][2])

	require.Len(t, dupes.Rows, 2)
	assert.Equal(t, "later", dupes.Rows[0][2])
	assert.Equal(t, "dupe of other", dupes.Rows[1][2])
	assert.Equal(t, tbl.Header, dupes.Header)
}

func TestDedupe_NoTimeColumnKeepsInputOrder(t *testing.T) {
	tbl := &fetcher.Table{
		Header: []string{"From"},
		Rows:   [][]string{{"Anonymous"}, {"Anonymous"}, {"5551234567"}},
	}

	unique, dupes, err := Dedupe(tbl)
	require.NoError(t, err)
	assert.Len(t, unique.Rows, 2)
	assert.Len(t, dupes.Rows, 1)
}

func TestDedupe_MissingOrigin(t *testing.T) {
	_, _, err := Dedupe(&fetcher.Table{Header: []string{"To"}})
	assert.Error(t, err)
}

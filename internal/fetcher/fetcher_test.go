package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable_XLSX(t *testing.T) {
	path := writeWorkbook(t, []string{"Sheet1"}, [][]string{
		{"ANI", "DNIS"},
		{"5551234567", "5559990000"},
		{"", ""},
		{"Anonymous", "5559990000"},
	})

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ANI", "DNIS"}, tbl.Header)
	require.Len(t, tbl.Rows, 2, "blank rows are dropped")
	assert.Equal(t, "Anonymous", tbl.Rows[1][0])
}

func TestReadTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.csv")
	require.NoError(t, os.WriteFile(path, []byte("From,To\n5551234567,5559990000\n"), 0o644))

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Index("to"))
	require.Len(t, tbl.Rows, 1)
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := ReadTable(context.Background(), "calls.txt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestReadTable_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestTable_Accessors(t *testing.T) {
	tbl := &Table{
		Header: []string{" Deal ID ", "ANI"},
		Rows:   [][]string{{"", "5551234567"}, {"42"}},
	}

	assert.Equal(t, 0, tbl.Index("deal id"))
	assert.Equal(t, -1, tbl.Index("missing"))
	assert.Equal(t, "", tbl.Value(tbl.Rows[1], 1))
	assert.Equal(t, "42", tbl.Value(tbl.Rows[1], 0))

	col := tbl.Column("Resolved By")
	assert.Equal(t, 2, col)
	assert.Equal(t, 2, tbl.Column("resolved by"))

	tbl.Set(1, col, "Analyst")
	assert.Equal(t, []string{"42", "", "Analyst"}, tbl.Rows[1])
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLSX", "~$a.xlsx", "notes.txt", "c.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	files, err := ListFiles(dir, ".xlsx", ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.XLSX"),
		filepath.Join(dir, "b.xlsx"),
		filepath.Join(dir, "c.csv"),
	}, files)

	_, err = ListFiles(filepath.Join(dir, "missing"), ".xlsx")
	assert.Error(t, err)
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "bottoms_up.db")
	require.NoError(t, os.WriteFile(db, nil, 0o644))

	got, err := ResolveFile(dir, ".db")
	require.NoError(t, err)
	assert.Equal(t, db, got)

	got, err = ResolveFile(db, ".db")
	require.NoError(t, err)
	assert.Equal(t, db, got)

	_, err = ResolveFile(dir, ".csv")
	assert.Error(t, err)

	_, err = ResolveFile(filepath.Join(dir, "missing"), ".db")
	assert.Error(t, err)
}

// Package fetcher reads the tabular inputs of a run (call imports, the CRM
// export and lookup tables) from CSV and XLSX files.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus data rows. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, matching case-insensitively
// and ignoring surrounding space, or -1.
func (t *Table) Index(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// Value returns the cell of row at column col, or "" when out of range.
func (t *Table) Value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Column returns the index of the column, adding it to the header when missing.
func (t *Table) Column(name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	t.Header = append(t.Header, name)
	return len(t.Header) - 1
}

// Set writes v into row i at column col, growing the row as needed.
func (t *Table) Set(i, col int, v string) {
	for len(t.Rows[i]) <= col {
		t.Rows[i] = append(t.Rows[i], "")
	}
	t.Rows[i][col] = v
}

// ReadTable reads a .xlsx or .csv file. The first row is the header.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{})
	case ".csv":
		rows, err = ReadCSVFile(ctx, path, CSVOptions{})
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", path)
	}
	if err != nil {
		return nil, err
	}

	t := &Table{}
	if len(rows) == 0 {
		return t, nil
	}
	t.Header = rows[0]
	for _, r := range rows[1:] {
		if blankRow(r) {
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// ListFiles returns the files in dir with one of the given extensions,
// sorted by name. Spreadsheet lock files ("~$...") are skipped.
func ListFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read dir %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ResolveFile returns path itself when it is a file, or the first file in it
// with one of the given extensions when it is a directory.
func ResolveFile(path string, exts ...string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: stat %s", path)
	}
	if !info.IsDir() {
		return path, nil
	}

	files, err := ListFiles(path, exts...)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", eris.Errorf("fetcher: no %s file in %s", strings.Join(exts, "/"), path)
	}
	return files[0], nil
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

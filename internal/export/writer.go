package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/cascade"
	"github.com/sells-group/callmatch/internal/fetcher"
)

// Output subdirectories under the run's output directory.
const (
	DirNewDeals  = "new_deals"
	DirFollowUp  = "follow_up"
	DirNoResult  = "no_result"
	DirLookup    = "lookup"
	DirNoDupes   = "abandoned_calls_no_dupe"
	DirDupes     = "abandoned_calls_dupe"
	importPrefix = "PIPEDRIVE IMPORT - "
)

// Writer places workbooks under a root output directory.
type Writer struct {
	dir string
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Files lists the workbooks written for one call import.
type Files struct {
	NewDeals    string
	FollowUp    string
	AddedPhones string
	NoResult    string
}

// Paths returns where the workbooks of call import n (1-based) go.
func (w *Writer) Paths(n int) Files {
	name := func(sub, title string) string {
		return filepath.Join(w.dir, sub, fmt.Sprintf("%d. %s%s.xlsx", n, importPrefix, title))
	}
	return Files{
		NewDeals:    name(DirNewDeals, "NEW DEALS"),
		FollowUp:    name(DirFollowUp, "FOLLOWUP"),
		AddedPhones: name(DirFollowUp, "FOLLOW UP (Added Phones)"),
		NoResult:    name(DirNoResult, "NO RESULT"),
	}
}

// WriteReport writes the workbooks for call import n. Workbooks with no
// rows are not written; the returned Files holds "" for them.
func (w *Writer) WriteReport(n int, rp *cascade.Report) (Files, error) {
	paths := w.Paths(n)
	var written Files

	steps := []struct {
		table *fetcher.Table
		path  string
		out   *string
	}{
		{NewDeals(rp.NewDeals), paths.NewDeals, &written.NewDeals},
		{FollowUps(rp.FollowUps), paths.FollowUp, &written.FollowUp},
		{AddedPhones(rp.FollowUps), paths.AddedPhones, &written.AddedPhones},
		{NoResults(rp.NoResults), paths.NoResult, &written.NoResult},
	}
	for _, s := range steps {
		if len(s.table.Rows) == 0 {
			continue
		}
		if err := WriteXLSX(s.path, s.table); err != nil {
			return written, err
		}
		*s.out = s.path
		zap.L().Info("export: wrote workbook",
			zap.String("path", s.path),
			zap.Int("rows", len(s.table.Rows)),
		)
	}
	return written, nil
}

// WriteTable writes a raw call table next to its source name, under sub and
// with the given prefix: "(Lookup Output) RC 27.xlsx".
func (w *Writer) WriteTable(sub, prefix, source string, t *fetcher.Table) (string, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".xlsx"
	path := filepath.Join(w.dir, sub, fmt.Sprintf("(%s) %s", prefix, base))
	if err := WriteXLSX(path, t); err != nil {
		return "", err
	}
	return path, nil
}

// Package crm loads the CRM deal export and matches calls against the
// numbers of known contacts.
package crm

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/model"
)

// LoadExport reads the deal export at path. A directory loads its first .csv.
func LoadExport(path string) ([]model.Deal, error) {
	file, err := fetcher.ResolveFile(path, ".csv")
	if err != nil {
		return nil, eris.Wrap(err, "crm: locate export")
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, eris.Wrap(err, "crm: open export")
	}
	defer f.Close() //nolint:errcheck

	return DecodeExport(f)
}

// DecodeExport decodes deal rows from CSV. Columns the Deal type does not
// know are ignored; missing columns decode as empty strings.
func DecodeExport(r io.Reader) ([]model.Deal, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "crm: read export header")
	}

	var deals []model.Deal
	for {
		var d model.Deal
		if err := dec.Decode(&d); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "crm: decode export row %d", len(deals)+1)
		}
		d.ID = cleanID(d.ID)
		d.PersonID = cleanID(d.PersonID)
		deals = append(deals, d)
	}
	return deals, nil
}

// WriteExport writes deals to path as CSV, creating parent directories.
func WriteExport(path string, deals []model.Deal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "crm: create export dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "crm: create export")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(model.Deal{}); err != nil {
		return eris.Wrap(err, "crm: write export header")
	}
	for i := range deals {
		if err := enc.Encode(deals[i]); err != nil {
			return eris.Wrapf(err, "crm: write deal %s", deals[i].ID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "crm: flush export")
	}
	return nil
}

func cleanID(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".0")
}

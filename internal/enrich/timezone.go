package enrich

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/phone"
)

// Timezones maps a three-digit area code to the CRM timezone label.
type Timezones map[string]string

// LoadTimezones reads the area-code table (columns "area_code" and
// "pipedrive_eq"). A missing file yields an empty table.
func LoadTimezones(ctx context.Context, path string) (Timezones, error) {
	tz := make(Timezones)
	if path == "" {
		return tz, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zap.L().Warn("enrich: timezone table not found", zap.String("path", path))
		return tz, nil
	}

	t, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: read timezone table")
	}
	codeCol, labelCol := t.Index("area_code"), t.Index("pipedrive_eq")
	if codeCol < 0 || labelCol < 0 {
		return nil, eris.Errorf("enrich: timezone table %s needs area_code and pipedrive_eq columns", path)
	}

	for _, row := range t.Rows {
		code := phone.MustNormalize(t.Value(row, codeCol))
		if code == "" {
			continue
		}
		tz[code] = t.Value(row, labelCol)
	}
	return tz, nil
}

// Lookup returns the timezone of a number by its area code, or "".
func (tz Timezones) Lookup(k phone.Key) string {
	return tz[k.AreaCode()]
}

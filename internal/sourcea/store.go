// Package sourcea matches calls against the flat contact export
// ("Bottoms Up") shipped as a SQLite file, and enriches matched numbers
// into new-deal profiles.
package sourcea

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/fetcher"
)

// Record is one row of the contact export.
type Record struct {
	ID             string
	Owner          string
	Name           enrich.Name
	Address        enrich.Address
	Place          enrich.Place
	Serial         string
	ContactGroupID string
	Offers         float64
	Phones         [5]string
	Emails         [5]string
}

// Store reads the contact export table.
type Store struct {
	db    *sql.DB
	table string
}

// Open opens the export at path, or the first .db file when path is a
// directory. The connection is query-only.
func Open(path, table string) (*Store, error) {
	file, err := fetcher.ResolveFile(path, ".db")
	if err != nil {
		return nil, eris.Wrap(err, "sourcea: locate database")
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, eris.Wrap(err, "sourcea: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA query_only = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sourcea: exec %s", pragma)
		}
	}
	if table == "" {
		table = "bottoms_up"
	}
	return &Store{db: db, table: table}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Numeric columns may hold REAL values; CAST keeps phone numbers out of
// exponent notation.
const recordColumns = `
	CAST(id AS TEXT), "Owner", "First Name", "Middle Name", "Last Name",
	"Input: Address", "Input: City", "Input: State", CAST("Input: Zip Code" AS TEXT),
	"County", "State", CAST("Serial Number" AS TEXT),
	CAST(contact_group_id AS TEXT), CAST(sum_of_all_offers AS REAL),
	CAST(phone1 AS TEXT), CAST(phone2 AS TEXT), CAST(phone3 AS TEXT), CAST(phone4 AS TEXT), CAST(phone5 AS TEXT),
	email1, email2, email3, email4, email5`

// Records reads every row of the export table.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", recordColumns, quoteIdent(s.table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "sourcea: query %s", s.table)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			str    [23]sql.NullString
			offers sql.NullFloat64
		)
		dest := []any{
			&str[0], &str[1], &str[2], &str[3], &str[4],
			&str[5], &str[6], &str[7], &str[8],
			&str[9], &str[10], &str[11],
			&str[12], &offers,
			&str[13], &str[14], &str[15], &str[16], &str[17],
			&str[18], &str[19], &str[20], &str[21], &str[22],
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "sourcea: scan record")
		}

		v := func(i int) string { return strings.TrimSpace(str[i].String) }
		r := Record{
			ID:             trimFloat(v(0)),
			Owner:          v(1),
			Name:           enrich.Name{First: v(2), Middle: v(3), Last: v(4)},
			Address:        enrich.Address{Street: v(5), City: v(6), State: v(7), PostalCode: trimFloat(v(8))},
			Place:          enrich.Place{County: v(9), State: v(10)},
			Serial:         v(11),
			ContactGroupID: trimFloat(v(12)),
			Offers:         offers.Float64,
		}
		for i := range r.Phones {
			r.Phones[i] = trimFloat(v(13 + i))
			r.Emails[i] = v(18 + i)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sourcea: iterate records")
	}
	return out, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func trimFloat(s string) string {
	return strings.TrimSuffix(s, ".0")
}

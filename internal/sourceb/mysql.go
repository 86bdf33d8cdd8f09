package sourceb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"
)

// NewSQLStore wraps an open MySQL handle.
func NewSQLStore(db *sql.DB) *Store {
	return &Store{src: sqlSource{db: db}, queries: mysqlQueries}
}

func openMySQL(dsn string, maxConns int) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sourceb: parse config")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "sourceb: create connector")
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

type sqlSource struct {
	db *sql.DB
}

func (s sqlSource) ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s sqlSource) close() { _ = s.db.Close() }

func (s sqlSource) each(ctx context.Context, name, query string, n int, fn func([]string)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sourceb: query %s", name)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		cells := make([]sql.NullString, n)
		dest := make([]any, n)
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return eris.Wrapf(err, "sourceb: scan %s", name)
		}
		v := make([]string, n)
		for i, c := range cells {
			if c.Valid {
				v[i] = strings.TrimSpace(c.String)
			}
		}
		fn(v)
	}
	return eris.Wrapf(rows.Err(), "sourceb: iterate %s", name)
}

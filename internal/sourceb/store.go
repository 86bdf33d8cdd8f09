// Package sourceb matches calls against the live contact database and
// enriches matched numbers into new-deal profiles.
package sourceb

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/resilience"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Options tunes the connection pool.
type Options struct {
	Driver          string
	MaxConns        int32
	ConnectAttempts int
}

// source runs a query and hands back each row as trimmed text cells,
// NULL as "".
type source interface {
	each(ctx context.Context, name, sql string, n int, fn func([]string)) error
	ping(ctx context.Context) error
	close()
}

// Store reads contacts from the live database.
type Store struct {
	src     source
	queries queries
}

// NewStore wraps an existing Postgres pool.
func NewStore(pool Pool) *Store {
	return &Store{src: pgxSource{pool: pool}, queries: postgresQueries}
}

// Open connects to the database named by url using opts.Driver (Postgres
// when blank), retrying transient ping failures. MySQL urls use the
// go-sql-driver DSN form, user:pass@tcp(host:3306)/dbname.
func Open(ctx context.Context, url string, opts Options) (*Store, error) {
	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}

	var s *Store
	switch opts.Driver {
	case "", DriverPostgres:
		pgxCfg, err := pgxpool.ParseConfig(url)
		if err != nil {
			return nil, eris.Wrap(err, "sourceb: parse config")
		}
		pgxCfg.MaxConns = maxConns
		pgxCfg.MaxConnLifetime = 30 * time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			return nil, eris.Wrap(err, "sourceb: create pool")
		}
		s = NewStore(pool)
	case DriverMySQL:
		db, err := openMySQL(url, int(maxConns))
		if err != nil {
			return nil, err
		}
		s = NewSQLStore(db)
	default:
		return nil, eris.Errorf("sourceb: unsupported driver %q", opts.Driver)
	}

	if err := s.Ping(ctx, opts.ConnectAttempts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Ping checks the connection, retrying transient failures up to attempts times.
func (s *Store) Ping(ctx context.Context, attempts int) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.OnRetry = resilience.RetryLogger("sourceb", "ping")

	err := resilience.Do(ctx, cfg, s.src.ping)
	return eris.Wrap(err, "sourceb: ping")
}

// Close releases the connections.
func (s *Store) Close() {
	s.src.close()
}

// queries are the four reads in one SQL dialect.
type queries struct {
	phones, emails, serials, details string
}

var postgresQueries = queries{
	phones: `SELECT c.id::text, n.phone_number
FROM contacts c
JOIN contact_phone_numbers n ON c.id = n.contact_id
WHERE c.deleted_at IS NULL AND n.deleted_at IS NULL`,

	emails: `SELECT c.id::text, e.email_address
FROM contacts c
JOIN contact_email_addresses e ON c.id = e.contact_id
WHERE c.deleted_at IS NULL AND e.deleted_at IS NULL`,

	serials: `SELECT c.id::text, string_agg(s.serial_number, ' | ') AS serial_numbers
FROM contacts c
JOIN contact_serial_numbers s ON c.id = s.contact_id
WHERE c.deleted_at IS NULL AND s.deleted_at IS NULL
GROUP BY c.id`,

	details: `SELECT c.id::text, c.first_name, c.middle_name, c.last_name, c.deal_id::text,
	a.address, a.city, a.state, a.postal_code, a.data_source,
	t.country, t.state
FROM contacts c
LEFT JOIN contact_skip_traced_addresses a ON c.id = a.contact_id AND a.deleted_at IS NULL
LEFT JOIN contact_targets t ON c.id = t.contact_id AND t.deleted_at IS NULL
WHERE c.deleted_at IS NULL`,
}

var mysqlQueries = queries{
	phones: `SELECT c.id, n.phone_number
FROM contacts c
JOIN contact_phone_numbers n ON c.id = n.contact_id
WHERE c.deleted_at IS NULL AND n.deleted_at IS NULL`,

	emails: `SELECT c.id, e.email_address
FROM contacts c
JOIN contact_email_addresses e ON c.id = e.contact_id
WHERE c.deleted_at IS NULL AND e.deleted_at IS NULL`,

	serials: `SELECT c.id, GROUP_CONCAT(s.serial_number SEPARATOR ' | ') AS serial_numbers
FROM contacts c
JOIN contact_serial_numbers s ON c.id = s.contact_id
WHERE c.deleted_at IS NULL AND s.deleted_at IS NULL
GROUP BY c.id`,

	details: `SELECT c.id, c.first_name, c.middle_name, c.last_name, c.deal_id,
	a.address, a.city, a.state, a.postal_code, a.data_source,
	t.country, t.state
FROM contacts c
LEFT JOIN contact_skip_traced_addresses a ON c.id = a.contact_id AND a.deleted_at IS NULL
LEFT JOIN contact_targets t ON c.id = t.contact_id AND t.deleted_at IS NULL
WHERE c.deleted_at IS NULL`,
}

// PhoneRow links a contact to one of its numbers.
type PhoneRow struct {
	ContactID string
	Number    string
}

// EmailRow links a contact to one of its email addresses.
type EmailRow struct {
	ContactID string
	Email     string
}

// Detail is one contact row joined with one address and one target.
// A contact with several addresses or targets yields several details.
type Detail struct {
	ContactID     string
	DealID        string
	Name          enrich.Name
	Address       enrich.Address
	AddressSource string
	Place         enrich.Place
}

// Snapshot is the part of the contact database a run reads.
type Snapshot struct {
	Phones  []PhoneRow
	Emails  []EmailRow
	Serials map[string]string // contact id -> " | " joined serials
	Details []Detail
}

// Snapshot reads the four contact tables concurrently.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Serials: make(map[string]string)}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.src.each(gctx, "phones", s.queries.phones, 2, func(v []string) {
			snap.Phones = append(snap.Phones, PhoneRow{ContactID: v[0], Number: v[1]})
		})
	})
	g.Go(func() error {
		return s.src.each(gctx, "emails", s.queries.emails, 2, func(v []string) {
			snap.Emails = append(snap.Emails, EmailRow{ContactID: v[0], Email: v[1]})
		})
	})
	g.Go(func() error {
		return s.src.each(gctx, "serials", s.queries.serials, 2, func(v []string) {
			snap.Serials[v[0]] = v[1]
		})
	})
	g.Go(func() error {
		return s.src.each(gctx, "details", s.queries.details, 12, func(v []string) {
			snap.Details = append(snap.Details, Detail{
				ContactID:     v[0],
				Name:          enrich.Name{First: v[1], Middle: v[2], Last: v[3]},
				DealID:        v[4],
				Address:       enrich.Address{Street: v[5], City: v[6], State: v[7], PostalCode: v[8]},
				AddressSource: v[9],
				Place:         enrich.Place{County: v[10], State: v[11]},
			})
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("sourceb: snapshot loaded",
		zap.Int("phones", len(snap.Phones)),
		zap.Int("emails", len(snap.Emails)),
		zap.Int("serials", len(snap.Serials)),
		zap.Int("details", len(snap.Details)),
	)
	return snap, nil
}

type pgxSource struct {
	pool Pool
}

func (p pgxSource) ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p pgxSource) close() { p.pool.Close() }

func (p pgxSource) each(ctx context.Context, name, sql string, n int, fn func([]string)) error {
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return eris.Wrapf(err, "sourceb: query %s", name)
	}
	defer rows.Close()

	for rows.Next() {
		cells := make([]pgtype.Text, n)
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

// Package store keeps queries and their offers in SQLite.
//
// The salary columns are declared without a type so SQLite stores whatever
// the ingester wrote, numbers and text alike. Offers returns those values
// untouched and leaves coercion to the stats package.
//
// Usage:
//
//	st, err := store.Open("query-offer.db")
//	queries, err := st.Queries(ctx)
//	offers, err := st.Offers(ctx, queries[0].ID)
//
// In tests:
//
//	st := store.OpenMemory(t)
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
)

// ErrQueryNotFound is returned when no query has the requested name.
var ErrQueryNotFound = errors.New("query not found")

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE TABLE IF NOT EXISTS offers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id    INTEGER NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	company     TEXT,
	title       TEXT,
	location    TEXT,
	url         TEXT,
	salary_text TEXT,
	source      TEXT,
	min_salary,
	max_salary
);

CREATE INDEX IF NOT EXISTS offers_query_id ON offers(query_id);
`

type config struct {
	busyTimeout int
	mkdirAll    bool
}

func defaults() config {
	return config{busyTimeout: 10_000}
}

// Option customises Open.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates parent directories of the database path.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// Store reads and writes queries and offers. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, applies pragmas and the
// schema, and verifies the connection.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store for testing. It pins the pool to one
// connection because each connection to ":memory:" is a separate database.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	st.db.SetMaxOpenConns(1)
	t.Cleanup(func() { st.Close() })
	return st
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Queries lists every query with its offer count, oldest first.
func (s *Store) Queries(ctx context.Context) ([]models.Query, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.name, q.created_at, COUNT(o.id)
		FROM queries q
		LEFT JOIN offers o ON o.query_id = q.id
		GROUP BY q.id
		ORDER BY q.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list queries: %w", err)
	}
	defer rows.Close()

	var queries []models.Query
	for rows.Next() {
		var (
			q       models.Query
			created string
		)
		if err := rows.Scan(&q.ID, &q.Name, &created, &q.Count); err != nil {
			return nil, fmt.Errorf("store: scan query: %w", err)
		}
		q.CreatedAt, _ = time.Parse(time.RFC3339, created)
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list queries: %w", err)
	}
	return queries, nil
}

// QueryByName returns the query called name or ErrQueryNotFound.
func (s *Store) QueryByName(ctx context.Context, name string) (models.Query, error) {
	var (
		q       models.Query
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.name, q.created_at, COUNT(o.id)
		FROM queries q
		LEFT JOIN offers o ON o.query_id = q.id
		WHERE q.name = ?
		GROUP BY q.id`, name).Scan(&q.ID, &q.Name, &created, &q.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Query{}, fmt.Errorf("%w: %s", ErrQueryNotFound, name)
	}
	if err != nil {
		return models.Query{}, fmt.Errorf("store: query %q: %w", name, err)
	}
	q.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return q, nil
}

// Offers returns the raw offers of one query in insertion order.
func (s *Store) Offers(ctx context.Context, queryID int64) ([]models.RawOffer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company, title, location, url, salary_text, source, min_salary, max_salary
		FROM offers
		WHERE query_id = ?
		ORDER BY id`, queryID)
	if err != nil {
		return nil, fmt.Errorf("store: offers of query %d: %w", queryID, err)
	}
	defer rows.Close()

	var offers []models.RawOffer
	for rows.Next() {
		var company, title, location, url, salaryText, source sql.NullString
		var minSalary, maxSalary any
		if err := rows.Scan(&company, &title, &location, &url, &salaryText, &source, &minSalary, &maxSalary); err != nil {
			return nil, fmt.Errorf("store: scan offer: %w", err)
		}
		offers = append(offers, models.RawOffer{
			"company":             company.String,
			"title":               title.String,
			"location":            location.String,
			"url":                 url.String,
			"salaryText":          salaryText.String,
			"source":              source.String,
			models.FieldMinSalary: minSalary,
			models.FieldMaxSalary: maxSalary,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: offers of query %d: %w", queryID, err)
	}
	return offers, nil
}

// CreateQuery returns the id of the query called name, creating it if needed.
func (s *Store) CreateQuery(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO queries (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("store: insert query: %w", err)
		}
		return tx.QueryRowContext(ctx, `SELECT id FROM queries WHERE name = ?`, name).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AddOffers stores raw offers under queryID in one transaction. Salary values
// are written as given, so malformed input is preserved.
func (s *Store) AddOffers(ctx context.Context, queryID int64, offers []models.RawOffer) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO offers (query_id, company, title, location, url, salary_text, source, min_salary, max_salary)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range offers {
			_, err := stmt.ExecContext(ctx, queryID,
				text(o["company"]), text(o["title"]), text(o["location"]),
				text(o["url"]), text(o["salaryText"]), text(o["source"]),
				o[models.FieldMinSalary], o[models.FieldMaxSalary])
			if err != nil {
				return fmt.Errorf("store: insert offer: %w", err)
			}
		}
		return nil
	})
}

// AddListings stores scraped listings under queryID. Listings without a
// parsed salary are stored with a zero minimum, meaning "not advertised".
func (s *Store) AddListings(ctx context.Context, queryID int64, listings []models.Listing) error {
	offers := make([]models.RawOffer, len(listings))
	for i, l := range listings {
		offers[i] = models.RawOffer{
			"company":             l.Company,
			"title":               l.Title,
			"location":            l.Location,
			"url":                 l.URL,
			"salaryText":          l.SalaryRange,
			"source":              l.Source,
			models.FieldMinSalary: l.MinSalary,
			models.FieldMaxSalary: l.MaxSalary,
		}
	}
	return s.AddOffers(ctx, queryID, offers)
}

func text(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

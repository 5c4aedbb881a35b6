package library

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlGuitarTerms = `
CREATE TABLE IF NOT EXISTS guitar_terms (
    term        TEXT         PRIMARY KEY,
    category    TEXT         NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_guitar_terms_category ON guitar_terms (category);
`

// Postgres is a [Library] whose curated terms live in the guitar_terms
// table. The table is read once at construction; later lookups never touch
// the database.
type Postgres struct {
	set *termSet
}

var _ Library = (*Postgres)(nil)

// Migrate creates the guitar_terms table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlGuitarTerms); err != nil {
		return fmt.Errorf("library: migrate guitar_terms: %w", err)
	}
	return nil
}

// Seed upserts terms grouped by category in a single batch.
func Seed(ctx context.Context, pool *pgxpool.Pool, categories map[string][]string) error {
	const q = `INSERT INTO guitar_terms (term, category) VALUES ($1, $2)
ON CONFLICT (term) DO UPDATE SET category = EXCLUDED.category`

	batch := &pgx.Batch{}
	for category, terms := range categories {
		for _, t := range terms {
			batch.Queue(q, t, category)
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("library: seed guitar_terms: %w", err)
	}
	return nil
}

// SeedFromFile loads the YAML collection at path and upserts it into the
// guitar_terms table at dsn, creating the table when needed. It returns the
// number of distinct terms in the collection.
func SeedFromFile(ctx context.Context, dsn, path string) (int, error) {
	if dsn == "" {
		return 0, fmt.Errorf("library: postgres dsn is empty")
	}
	f, err := LoadFile(path)
	if err != nil {
		return 0, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("library: create pool: %w", err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool); err != nil {
		return 0, err
	}
	if err := Seed(ctx, pool, f.Categories()); err != nil {
		return 0, err
	}
	return f.Stats().TotalTerms, nil
}

// LoadPostgres connects to dsn, ensures the schema exists, reads every term
// and closes the connection pool.
func LoadPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("library: postgres dsn is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("library: create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("library: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		return nil, err
	}
	return NewPostgres(ctx, pool)
}

// NewPostgres reads every term from pool. The pool is not retained.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	rows, err := pool.Query(ctx, `SELECT term, category FROM guitar_terms`)
	if err != nil {
		return nil, fmt.Errorf("library: query guitar_terms: %w", err)
	}

	type row struct {
		term, category string
	}
	all, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var out row
		err := r.Scan(&out.term, &out.category)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("library: scan guitar_terms: %w", err)
	}

	s := newTermSet()
	for _, r := range all {
		s.add(r.category, r.term)
	}
	if len(s.terms) == 0 {
		return nil, fmt.Errorf("library: guitar_terms is empty")
	}
	return &Postgres{set: s}, nil
}

// IsTerm implements [Library].
func (p *Postgres) IsTerm(normalized string) bool { return p.set.has(normalized) }

// Stats implements [Library].
func (p *Postgres) Stats() Stats {
	return Stats{
		TotalTerms: len(p.set.terms),
		Type:       string(SourcePostgres),
		Categories: len(p.set.categories),
	}
}

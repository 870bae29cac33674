package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/scriptradar/rxquote/internal/db"
	"github.com/scriptradar/rxquote/internal/model"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres wraps an existing pool. The caller owns pool construction so
// tests can substitute pgxmock.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS regional_price_cache (
	drug_name      TEXT NOT NULL,
	region         TEXT NOT NULL,
	price_per_unit DOUBLE PRECISION NOT NULL,
	fetched_at     TIMESTAMPTZ NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (drug_name, region)
);

CREATE TABLE IF NOT EXISTS quote_runs (
	id           UUID PRIMARY KEY,
	medication   TEXT NOT NULL,
	generic_name TEXT NOT NULL,
	pharmacies   INTEGER NOT NULL,
	provenance   TEXT,
	quotes       INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_regional_cache_expires ON regional_price_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_quote_runs_created ON quote_runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCachedRegionalPrice(ctx context.Context, drugName, region string) (*RegionalPrice, error) {
	var rp RegionalPrice
	err := s.pool.QueryRow(ctx,
		`SELECT drug_name, region, price_per_unit, fetched_at
		 FROM regional_price_cache
		 WHERE drug_name = $1 AND region = $2 AND expires_at > now()`,
		drugName, region,
	).Scan(&rp.DrugName, &rp.Region, &rp.PricePerUnit, &rp.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get regional price")
	}
	return &rp, nil
}

func (s *PostgresStore) SetCachedRegionalPrice(ctx context.Context, drugName, region string, pricePerUnit float64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultRegionalTTL
	}
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO regional_price_cache (drug_name, region, price_per_unit, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (drug_name, region) DO UPDATE SET
		   price_per_unit = EXCLUDED.price_per_unit,
		   fetched_at = EXCLUDED.fetched_at,
		   expires_at = EXCLUDED.expires_at`,
		drugName, region, pricePerUnit, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set regional price")
}

func (s *PostgresStore) DeleteExpiredRegionalPrices(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM regional_price_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired regional prices")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CreateQuoteRun(ctx context.Context, medication, genericName string, pharmacies int) (*QuoteRun, error) {
	run := &QuoteRun{
		ID:          uuid.New().String(),
		Medication:  medication,
		GenericName: genericName,
		Pharmacies:  pharmacies,
		Status:      RunStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quote_runs (id, medication, generic_name, pharmacies, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Medication, run.GenericName, run.Pharmacies, run.Status, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert quote run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteQuoteRun(ctx context.Context, runID string, provenance model.Provenance, quotes int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quote_runs SET provenance = $1, quotes = $2, status = $3, completed_at = now() WHERE id = $4`,
		string(provenance), quotes, RunStatusComplete, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete quote run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: quote run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) ListQuoteRuns(ctx context.Context, limit int) ([]QuoteRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, medication, generic_name, pharmacies, COALESCE(provenance, ''), quotes, status, created_at, completed_at
		 FROM quote_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list quote runs")
	}
	defer rows.Close()

	var runs []QuoteRun
	for rows.Next() {
		var run QuoteRun
		var prov string
		var completed *time.Time
		if err := rows.Scan(&run.ID, &run.Medication, &run.GenericName, &run.Pharmacies,
			&prov, &run.Quotes, &run.Status, &run.CreatedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quote run")
		}
		run.Provenance = model.Provenance(prov)
		run.CompletedAt = completed
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate quote runs")
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/scriptradar/rxquote/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS regional_price_cache (
	drug_name      TEXT NOT NULL,
	region         TEXT NOT NULL,
	price_per_unit REAL NOT NULL,
	fetched_at     DATETIME NOT NULL,
	expires_at     DATETIME NOT NULL,
	PRIMARY KEY (drug_name, region)
);

CREATE TABLE IF NOT EXISTS quote_runs (
	id           TEXT PRIMARY KEY,
	medication   TEXT NOT NULL,
	generic_name TEXT NOT NULL,
	pharmacies   INTEGER NOT NULL,
	provenance   TEXT,
	quotes       INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_regional_cache_expires ON regional_price_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_quote_runs_created ON quote_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedRegionalPrice(ctx context.Context, drugName, region string) (*RegionalPrice, error) {
	var rp RegionalPrice
	err := s.db.QueryRowContext(ctx,
		`SELECT drug_name, region, price_per_unit, fetched_at
		 FROM regional_price_cache
		 WHERE drug_name = ? AND region = ? AND expires_at > ?`,
		drugName, region, time.Now().UTC(),
	).Scan(&rp.DrugName, &rp.Region, &rp.PricePerUnit, &rp.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get regional price")
	}
	return &rp, nil
}

func (s *SQLiteStore) SetCachedRegionalPrice(ctx context.Context, drugName, region string, pricePerUnit float64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultRegionalTTL
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO regional_price_cache (drug_name, region, price_per_unit, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (drug_name, region) DO UPDATE SET
		   price_per_unit = excluded.price_per_unit,
		   fetched_at = excluded.fetched_at,
		   expires_at = excluded.expires_at`,
		drugName, region, pricePerUnit, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set regional price")
}

func (s *SQLiteStore) DeleteExpiredRegionalPrices(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM regional_price_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired regional prices")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) CreateQuoteRun(ctx context.Context, medication, genericName string, pharmacies int) (*QuoteRun, error) {
	run := &QuoteRun{
		ID:          uuid.New().String(),
		Medication:  medication,
		GenericName: genericName,
		Pharmacies:  pharmacies,
		Status:      RunStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quote_runs (id, medication, generic_name, pharmacies, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Medication, run.GenericName, run.Pharmacies, run.Status, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert quote run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteQuoteRun(ctx context.Context, runID string, provenance model.Provenance, quotes int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE quote_runs SET provenance = ?, quotes = ?, status = ?, completed_at = ? WHERE id = ?`,
		string(provenance), quotes, RunStatusComplete, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete quote run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: quote run %s not found", runID)
	}
	return nil
}

func (s *SQLiteStore) ListQuoteRuns(ctx context.Context, limit int) ([]QuoteRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, medication, generic_name, pharmacies, COALESCE(provenance, ''), quotes, status, created_at, completed_at
		 FROM quote_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list quote runs")
	}
	defer rows.Close()

	var runs []QuoteRun
	for rows.Next() {
		var run QuoteRun
		var prov string
		var completed sql.NullTime
		if err := rows.Scan(&run.ID, &run.Medication, &run.GenericName, &run.Pharmacies,
			&prov, &run.Quotes, &run.Status, &run.CreatedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quote run")
		}
		run.Provenance = model.Provenance(prov)
		if completed.Valid {
			run.CompletedAt = &completed.Time
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate quote runs")
}

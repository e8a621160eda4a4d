package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/epitrack/covid-cli/internal/db"
	"github.com/epitrack/covid-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to the database at the given URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, eris.New("postgres: database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, for tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	countries  JSONB NOT NULL,
	rows       INTEGER NOT NULL,
	dropped    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS summaries (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
	country     TEXT NOT NULL,
	summary     JSONB NOT NULL,
	PRIMARY KEY (snapshot_id, country)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
CREATE INDEX IF NOT EXISTS idx_summaries_snapshot_id ON summaries(snapshot_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateSnapshot(ctx context.Context, source string, countries []string, rows, dropped int) (*model.Snapshot, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	countriesJSON, err := json.Marshal(countries)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal countries")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, source, countries, rows, dropped, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, source, countriesJSON, rows, dropped, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}

	return &model.Snapshot{
		ID:        id,
		Source:    source,
		Countries: countries,
		Rows:      rows,
		Dropped:   dropped,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) SaveSummaries(ctx context.Context, snapshotID string, summaries []model.CountrySummary) error {
	rows := make([][]any, 0, len(summaries))
	for _, sum := range summaries {
		data, err := json.Marshal(sum)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal summary for %s", sum.Country)
		}
		rows = append(rows, []any{snapshotID, sum.Country, data})
	}

	_, err := db.CopyFrom(ctx, s.pool, "summaries", []string{"snapshot_id", "country", "summary"}, rows)
	return err
}

func (s *PostgresStore) GetSummaries(ctx context.Context, snapshotID string) ([]model.CountrySummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT summary FROM summaries WHERE snapshot_id = $1 ORDER BY country`,
		snapshotID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query summaries")
	}
	defer rows.Close()

	var out []model.CountrySummary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan summary")
		}
		var sum model.CountrySummary
		if err := json.Unmarshal(data, &sum); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate summaries")
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, countries, rows, dropped, created_at FROM snapshots ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var countriesJSON []byte
		if err := rows.Scan(&snap.ID, &snap.Source, &countriesJSON, &snap.Rows, &snap.Dropped, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		if err := json.Unmarshal(countriesJSON, &snap.Countries); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal countries")
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/epitrack/covid-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
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
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	countries  TEXT NOT NULL,
	rows       INTEGER NOT NULL,
	dropped    INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS summaries (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
	country     TEXT NOT NULL,
	summary     TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, country)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
CREATE INDEX IF NOT EXISTS idx_summaries_snapshot_id ON summaries(snapshot_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSnapshot(ctx context.Context, source string, countries []string, rows, dropped int) (*model.Snapshot, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	countriesJSON, err := json.Marshal(countries)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal countries")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, countries, rows, dropped, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source, string(countriesJSON), rows, dropped, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
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

func (s *SQLiteStore) SaveSummaries(ctx context.Context, snapshotID string, summaries []model.CountrySummary) error {
	for _, sum := range summaries {
		data, err := json.Marshal(sum)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal summary for %s", sum.Country)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO summaries (snapshot_id, country, summary) VALUES (?, ?, ?)
			 ON CONFLICT (snapshot_id, country) DO UPDATE SET summary = excluded.summary`,
			snapshotID, sum.Country, string(data),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert summary for %s", sum.Country)
		}
	}
	return nil
}

func (s *SQLiteStore) GetSummaries(ctx context.Context, snapshotID string) ([]model.CountrySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT summary FROM summaries WHERE snapshot_id = ? ORDER BY country`,
		snapshotID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query summaries")
	}
	defer rows.Close()

	var out []model.CountrySummary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan summary")
		}
		var sum model.CountrySummary
		if err := json.Unmarshal([]byte(data), &sum); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate summaries")
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, countries, rows, dropped, created_at FROM snapshots ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var countriesJSON string
		if err := rows.Scan(&snap.ID, &snap.Source, &countriesJSON, &snap.Rows, &snap.Dropped, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		if err := json.Unmarshal([]byte(countriesJSON), &snap.Countries); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal countries")
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

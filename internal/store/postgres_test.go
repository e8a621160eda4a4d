package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epitrack/covid-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "https://example.com/data.csv", pgxmock.AnyArg(), 250, 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	snap, err := s.CreateSnapshot(context.Background(), "https://example.com/data.csv", []string{"Kenya", "India"}, 250, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, []string{"Kenya", "India"}, snap.Countries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSnapshot_InsertError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "file:data.csv", pgxmock.AnyArg(), 10, 0, pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	_, err := s.CreateSnapshot(context.Background(), "file:data.csv", []string{"Kenya"}, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert snapshot")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSummaries_CopyFrom(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"summaries"}, []string{"snapshot_id", "country", "summary"}).
		WillReturnResult(2)

	err := s.SaveSummaries(context.Background(), "snap-1", []model.CountrySummary{
		{Country: "Kenya", TotalCases: 100},
		{Country: "India", TotalCases: 200},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSummaries_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// No CopyFrom expected for an empty batch.
	err := s.SaveSummaries(context.Background(), "snap-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSummaries(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"summary"}).
		AddRow([]byte(`{"country":"India","total_cases":200,"latest_date":"2021-06-01T00:00:00Z"}`)).
		AddRow([]byte(`{"country":"Kenya","total_cases":100,"latest_date":"2021-06-01T00:00:00Z"}`))

	mock.ExpectQuery(`SELECT summary FROM summaries WHERE snapshot_id = \$1 ORDER BY country`).
		WithArgs("snap-1").
		WillReturnRows(rows)

	got, err := s.GetSummaries(context.Background(), "snap-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "India", got[0].Country)
	assert.Equal(t, float64(100), got[1].TotalCases)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "source", "countries", "rows", "dropped", "created_at"}).
		AddRow("snap-2", "file:b.csv", []byte(`["India"]`), 20, 1, now).
		AddRow("snap-1", "file:a.csv", []byte(`["Kenya"]`), 10, 0, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT id, source, countries, rows, dropped, created_at FROM snapshots ORDER BY created_at DESC`).
		WithArgs(20).
		WillReturnRows(rows)

	got, err := s.ListSnapshots(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "snap-2", got[0].ID)
	assert.Equal(t, []string{"Kenya"}, got[1].Countries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

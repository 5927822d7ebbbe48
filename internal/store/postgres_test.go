package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS basin.runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := sampleRun(8)
	r.ID = "run-1"

	mock.ExpectExec(`INSERT INTO basin.runs`).
		WithArgs("run-1", 4.25, -73.5, 8, "all", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 14.75, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRun(context.Background(), r))
	assert.False(t, r.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	want := sampleRun(8)
	params, _ := json.Marshal(want.Params)
	ids, _ := json.Marshal(want.IDs)
	rows, _ := json.Marshal(want.Rows)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, lat, lon, level, method, params, hybas_ids, rows, area_ha, created_at FROM basin.runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "lat", "lon", "level", "method", "params", "hybas_ids", "rows", "area_ha", "created_at"}).
			AddRow("run-1", 4.25, -73.5, 8, "all", params, ids, rows, 14.75, created))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, want.Params, got.Params)
	assert.Equal(t, created, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM basin.runs WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nope")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM basin.runs WHERE \(\$1 = 0 OR level = \$1\)`).
		WithArgs(6, DefaultListLimit, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "lat", "lon", "level", "method", "params", "hybas_ids", "area_ha", "created_at"}).
			AddRow("a", 1.0, 2.0, 6, "filter", []byte(`{"threshold":30,"start_year":2005,"end_year":2010}`), []byte(`[7]`), 3.5, time.Now()))

	runs, err := s.ListRuns(context.Background(), RunFilter{Level: 6})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 30, runs[0].Params.Threshold)
	assert.Equal(t, []int64{7}, runs[0].IDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`DELETE FROM basin.runs WHERE id = \$1`).WithArgs("a").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM basin.runs WHERE id = \$1`).WithArgs("b").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteRun(context.Background(), "a"))
	assert.True(t, eris.Is(s.DeleteRun(context.Background(), "b"), ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseWithoutOwnership(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	assert.NoError(t, s.Close())
	assert.NotNil(t, s.Pool())
}

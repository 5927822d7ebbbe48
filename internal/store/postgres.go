package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/basin-cli/internal/db"
)

// PostgresStore implements Store on a Postgres pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres opens a pool for connString.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; Close leaves it open.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS basin;

CREATE TABLE IF NOT EXISTS basin.runs (
	id         TEXT PRIMARY KEY,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	level      INTEGER NOT NULL,
	method     TEXT NOT NULL,
	params     JSONB NOT NULL,
	hybas_ids  JSONB NOT NULL,
	rows       JSONB NOT NULL,
	area_ha    DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_level ON basin.runs(level);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON basin.runs(created_at DESC);
`

// Migrate creates the runs table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool when the store opened it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRun inserts a run.
func (s *PostgresStore) SaveRun(ctx context.Context, r *Run) error {
	prepare(r)
	params, ids, rows, err := encodeRun(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO basin.runs (id, lat, lon, level, method, params, hybas_ids, rows, area_ha, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Lat, r.Lon, r.Level, r.Method, params, ids, rows, r.Area, r.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", r.ID)
}

// GetRun returns a run with its rows.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, lat, lon, level, method, params, hybas_ids, rows, area_ha, created_at FROM basin.runs WHERE id = $1`,
		id,
	)

	var r Run
	var params, ids, rows []byte
	err := row.Scan(&r.ID, &r.Lat, &r.Lon, &r.Level, &r.Method, &params, &ids, &rows, &r.Area, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	if err := decodeRun(&r, params, ids, rows); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns run summaries newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, lat, lon, level, method, params, hybas_ids, area_ha, created_at FROM basin.runs WHERE ($1 = 0 OR level = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, filter.Level, limitOf(filter), max(filter.Offset, 0))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var params, ids []byte
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lon, &r.Level, &r.Method, &params, &ids, &r.Area, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := decodeRun(&r, params, ids, nil); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// DeleteRun removes a run.
func (s *PostgresStore) DeleteRun(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM basin.runs WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete run %s", id)
	}
	return nil
}

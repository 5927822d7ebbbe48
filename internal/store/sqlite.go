package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	level      INTEGER NOT NULL,
	method     TEXT NOT NULL,
	params     TEXT NOT NULL,
	hybas_ids  TEXT NOT NULL,
	rows       TEXT NOT NULL,
	area_ha    REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_level ON runs(level);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Migrate creates the runs table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run.
func (s *SQLiteStore) SaveRun(ctx context.Context, r *Run) error {
	prepare(r)
	params, ids, rows, err := encodeRun(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, lat, lon, level, method, params, hybas_ids, rows, area_ha, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Lat, r.Lon, r.Level, r.Method, string(params), string(ids), string(rows), r.Area, r.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", r.ID)
}

// GetRun returns a run with its rows.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lat, lon, level, method, params, hybas_ids, rows, area_ha, created_at FROM runs WHERE id = ?`,
		id,
	)

	var r Run
	var params, ids, rows string
	err := row.Scan(&r.ID, &r.Lat, &r.Lon, &r.Level, &r.Method, &params, &ids, &rows, &r.Area, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	if err := decodeRun(&r, []byte(params), []byte(ids), []byte(rows)); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns run summaries newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, lat, lon, level, method, params, hybas_ids, area_ha, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Level > 0 {
		query += ` AND level = ?`
		args = append(args, filter.Level)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOf(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		var params, ids string
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lon, &r.Level, &r.Method, &params, &ids, &r.Area, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := decodeRun(&r, []byte(params), []byte(ids), nil); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// DeleteRun removes a run.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete run %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete run %s", id)
	}
	return nil
}

func prepare(r *Run) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func encodeRun(r *Run) (params, ids, rows []byte, err error) {
	if params, err = json.Marshal(r.Params); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal params")
	}
	if ids, err = json.Marshal(r.IDs); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal ids")
	}
	if rows, err = json.Marshal(r.Rows); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal rows")
	}
	return params, ids, rows, nil
}

func decodeRun(r *Run, params, ids, rows []byte) error {
	if err := json.Unmarshal(params, &r.Params); err != nil {
		return eris.Wrap(err, "store: unmarshal params")
	}
	if err := json.Unmarshal(ids, &r.IDs); err != nil {
		return eris.Wrap(err, "store: unmarshal ids")
	}
	if rows != nil {
		if err := json.Unmarshal(rows, &r.Rows); err != nil {
			return eris.Wrap(err, "store: unmarshal rows")
		}
	}
	return nil
}

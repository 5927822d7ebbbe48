// Package store persists calculated statistics runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/zonal"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// Run is one statistics calculation: the inputs that produced it and the
// resulting long-format table.
type Run struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	Level     int         `json:"level"`
	Method    string      `json:"method"`
	Params    gfc.Params  `json:"params"`
	IDs       []int64     `json:"hybas_ids"`
	Rows      []zonal.Row `json:"rows"`
	Area      float64     `json:"area_ha"`
}

// Table returns the run rows as a table.
func (r *Run) Table() *zonal.Table {
	return &zonal.Table{Rows: r.Rows}
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Level  int `json:"level,omitempty"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// Store defines the persistence interface for runs.
type Store interface {
	// SaveRun assigns an id and creation time when unset and stores r.
	SaveRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns runs newest first, without their rows.
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	DeleteRun(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

func limitOf(f RunFilter) int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

package hydro

import "context"

// Source answers the three catchment queries the upstream resolver and the
// statistics need. Index (in memory) and PostgresStore implement it.
type Source interface {
	// Containing returns the catchments at level whose polygon contains the point.
	Containing(ctx context.Context, level int, lon, lat float64) ([]Catchment, error)

	// Upstream returns the catchments at level whose NEXT_DOWN is one of ids.
	Upstream(ctx context.Context, level int, ids []int64) ([]Catchment, error)

	// Catchments returns the catchments at level with the given HYBAS_IDs.
	Catchments(ctx context.Context, level int, ids []int64) ([]Catchment, error)
}

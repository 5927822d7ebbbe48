package hydro

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxSteps bounds the upstream expansion when no budget is configured.
const DefaultMaxSteps = 100

// Upstream is the result of resolving a point to its drainage set.
type Upstream struct {
	Level int     `json:"level"`
	Base  []int64 `json:"base"` // catchments containing the point
	IDs   []int64 `json:"ids"`  // base plus every upstream catchment, ascending
	Steps int     `json:"steps"`

	// Truncated is set when the step budget ran out while the frontier was
	// still growing; IDs is then a subset of the full drainage set.
	Truncated bool `json:"truncated"`
}

// Resolver walks NEXT_DOWN pointers upstream from the catchments containing a point.
type Resolver struct {
	src      Source
	maxSteps int
}

// NewResolver creates a Resolver over src. maxSteps <= 0 selects DefaultMaxSteps.
func NewResolver(src Source, maxSteps int) *Resolver {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Resolver{src: src, maxSteps: maxSteps}
}

// Source returns the catchment source behind the resolver.
func (r *Resolver) Source() Source { return r.src }

// Resolve returns the catchments upstream of (and including) the ones
// containing lon/lat. A point outside every catchment yields an empty set.
func (r *Resolver) Resolve(ctx context.Context, level int, lon, lat float64) (*Upstream, error) {
	return r.ResolveSteps(ctx, level, lon, lat, r.maxSteps)
}

// ResolveSteps is Resolve with an explicit step budget. Each step queries the
// catchments draining into the current frontier; the walk stops early once a
// step finds nothing that has not been visited.
func (r *Resolver) ResolveSteps(ctx context.Context, level int, lon, lat float64, maxSteps int) (*Upstream, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	base, err := r.src.Containing(ctx, level, lon, lat)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: find base catchment")
	}

	res := &Upstream{Level: level, Base: IDs(base)}
	if len(base) == 0 {
		zap.L().Debug("hydro: point outside every catchment",
			zap.Int("level", level), zap.Float64("lon", lon), zap.Float64("lat", lat))
		return res, nil
	}

	seen := make(map[int64]bool, len(base))
	frontier := make([]int64, 0, len(base))
	for _, id := range res.Base {
		if !seen[id] {
			seen[id] = true
			frontier = append(frontier, id)
		}
	}

	for res.Steps < maxSteps && len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "hydro: resolve upstream")
		}

		found, err := r.src.Upstream(ctx, level, frontier)
		if err != nil {
			return nil, eris.Wrapf(err, "hydro: expand upstream step %d", res.Steps+1)
		}
		res.Steps++

		var next []int64
		for _, c := range found {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			next = append(next, c.ID)
		}
		frontier = next
	}
	res.Truncated = len(frontier) > 0

	res.IDs = make([]int64, 0, len(seen))
	for id := range seen {
		res.IDs = append(res.IDs, id)
	}
	sort.Slice(res.IDs, func(i, j int) bool { return res.IDs[i] < res.IDs[j] })

	zap.L().Debug("hydro: upstream resolved",
		zap.Int("level", level),
		zap.Int("catchments", len(res.IDs)),
		zap.Int("steps", res.Steps),
		zap.Bool("truncated", res.Truncated),
	)
	return res, nil
}

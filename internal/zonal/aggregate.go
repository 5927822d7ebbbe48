package zonal

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/hydro"
)

// Stats holds hectares per code per catchment.
type Stats map[int64]map[gfc.Code]float64

// IDs returns the catchment ids in ascending order.
func (s Stats) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Total returns the summed area of one catchment.
func (s Stats) Total(id int64) float64 {
	var sum float64
	for _, a := range s[id] {
		sum += a
	}
	return sum
}

// Aggregator computes zonal statistics with bounded parallelism.
type Aggregator struct {
	workers int
}

// NewAggregator creates an Aggregator running up to workers catchments at once.
func NewAggregator(workers int) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{workers: workers}
}

// Aggregate sums pixel area by code for every catchment. A pixel belongs to
// a catchment when its centre lies inside the polygon. Masked pixels are
// skipped. Catchments without classified pixels are present with no codes.
func (a *Aggregator) Aggregate(ctx context.Context, r *gfc.Raster, cs []hydro.Catchment) (Stats, error) {
	if r == nil {
		return nil, eris.New("zonal: no raster")
	}
	rowArea := RowAreas(r.Grid)
	results := make([]map[gfc.Code]float64, len(cs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range cs {
		c := &cs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = sumCatchment(r, rowArea, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "zonal: aggregate")
	}

	out := make(Stats, len(cs))
	for i, c := range cs {
		byCode, ok := out[c.ID]
		if !ok {
			byCode = make(map[gfc.Code]float64)
			out[c.ID] = byCode
		}
		for code, area := range results[i] {
			byCode[code] += area
		}
	}

	zap.L().Debug("zonal: aggregated",
		zap.Int("catchments", len(cs)),
		zap.Int("pixels", r.Len()),
	)
	return out, nil
}

func sumCatchment(r *gfc.Raster, rowArea []float64, c *hydro.Catchment) map[gfc.Code]float64 {
	out := make(map[gfc.Code]float64)
	bb, ok := hydro.Bounds([]hydro.Catchment{*c})
	if !ok {
		return out
	}
	col0, row0, col1, row1 := r.Window(gfc.Bounds{
		West: bb.MinLng, South: bb.MinLat, East: bb.MaxLng, North: bb.MaxLat,
	})
	for row := row0; row < row1; row++ {
		for col := col0; col < col1; col++ {
			code := r.At(col, row)
			if code == gfc.Masked {
				continue
			}
			lon, lat := r.PixelCenter(col, row)
			if c.Contains(lon, lat) {
				out[code] += rowArea[row]
			}
		}
	}
	return out
}

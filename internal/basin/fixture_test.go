package basin

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/zonal"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const fixtureVersion = "GFC-2022-v1.10"

func square(x0, y0, x1, y1 float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{
		{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}},
	}})
}

// fixtureCatchments is a level 8 drainage tree of 1° cells:
//
//	104 -> 103 -> 101 -> 100 (outlet), 102 -> 100, 200 unrelated.
func fixtureCatchments() []hydro.Catchment {
	return []hydro.Catchment{
		{ID: 100, NextDown: 0, Geom: square(0, 0, 1, 1)},
		{ID: 101, NextDown: 100, Geom: square(1, 0, 2, 1)},
		{ID: 102, NextDown: 100, Geom: square(0, 1, 1, 2)},
		{ID: 103, NextDown: 101, Geom: square(1, 1, 2, 2)},
		{ID: 104, NextDown: 103, Geom: square(2, 1, 3, 2)},
		{ID: 200, NextDown: 0, Geom: square(5, 5, 6, 6)},
	}
}

// writeFixtureTiles writes the 10N_000E tile at 0.1° with:
// open land west of 0.5°E, gain between 2°E and 2.5°E, loss in 2015 between
// 1°N and 1.5°N and loss in 2005 south of 0.2°N.
func writeFixtureTiles(t *testing.T, dir string) {
	t.Helper()
	const size = 100
	id := gfc.TileID{North: 10, West: 0}
	lonOf := func(x int) float64 { return (float64(x) + 0.5) / 10 }
	latOf := func(y int) float64 { return 10 - (float64(y)+0.5)/10 }

	bands := map[string]func(x, y int) uint8{
		gfc.BandTreecover: func(x, _ int) uint8 {
			if lonOf(x) < 0.5 {
				return 20
			}
			return 90
		},
		gfc.BandLossyear: func(_, y int) uint8 {
			lat := latOf(y)
			switch {
			case lat >= 1 && lat < 1.5:
				return 15
			case lat < 0.2:
				return 5
			}
			return 0
		},
		gfc.BandGain: func(x, _ int) uint8 {
			if lon := lonOf(x); lon >= 2 && lon < 2.5 {
				return 1
			}
			return 0
		},
	}
	for band, value := range bands {
		img := image.NewGray(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.Pix[y*img.Stride+x] = value(x, y)
			}
		}
		f, err := os.Create(filepath.Join(dir, gfc.TileName(fixtureVersion, band, id)))
		require.NoError(t, err)
		require.NoError(t, tiff.Encode(f, img, nil))
		require.NoError(t, f.Close())
	}
}

type countingRasters struct {
	RasterSource
	reads atomic.Int32
	fail  error
}

func (c *countingRasters) Read(ctx context.Context, b gfc.Bounds, stride int) (*gfc.Stack, error) {
	c.reads.Add(1)
	if c.fail != nil {
		return nil, c.fail
	}
	return c.RasterSource.Read(ctx, b, stride)
}

func newFixtureModel(t *testing.T) (*Model, *countingRasters) {
	t.Helper()
	dir := t.TempDir()
	writeFixtureTiles(t, dir)

	tiles, err := gfc.NewTileSource(dir, fixtureVersion, 6)
	require.NoError(t, err)
	rasters := &countingRasters{RasterSource: tiles}

	m := NewModel(Deps{
		Resolver:   hydro.NewResolver(hydro.NewIndex(8, fixtureCatchments()), 100),
		Rasters:    rasters,
		Aggregator: zonal.NewAggregator(4),
		Table:      zonal.TableOptions{PaletteSize: 20},
	}, Defaults{StartYear: 2010, EndYear: 2020, Threshold: 80, Level: 8})
	return m, rasters
}

// cellHectares is the area of a 1° cell between two latitudes.
func cellHectares(south float64) float64 {
	return zonal.CellArea(south+1, south, 1) / zonal.SquareMetresPerHectare
}

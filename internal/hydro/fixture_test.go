package hydro

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x0, y0, x1, y1 float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{
		{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}},
	}}).SetSRID(4326)
}

// network is a small drainage tree:
//
//	104 -> 103 -> 101 -> 100 (outlet)
//	              102 -> 100
//	200 is an unrelated coastal basin.
func network() []Catchment {
	return []Catchment{
		{ID: 100, NextDown: 0, SubArea: 12.3, UpArea: 60, Level: 8, Geom: square(0, 0, 1, 1)},
		{ID: 101, NextDown: 100, SubArea: 11.8, UpArea: 35, Level: 8, Geom: square(1, 0, 2, 1)},
		{ID: 102, NextDown: 100, SubArea: 12.1, UpArea: 12.1, Level: 8, Geom: square(0, 1, 1, 2)},
		{ID: 103, NextDown: 101, SubArea: 11.9, UpArea: 23, Level: 8, Geom: square(1, 1, 2, 2)},
		{ID: 104, NextDown: 103, SubArea: 11.2, UpArea: 11.2, Level: 8, Geom: square(2, 1, 3, 2)},
		{ID: 200, NextDown: 0, SubArea: 10, UpArea: 10, Coast: 1, Level: 8, Geom: square(5, 5, 6, 6)},
	}
}

// writeShapefile writes catchments as a HydroBASINS-style shapefile.
func writeShapefile(t *testing.T, dir, name string, cs []Catchment) string {
	t.Helper()
	path := filepath.Join(dir, name)

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.NumberField("HYBAS_ID", 11),
		shp.NumberField("NEXT_DOWN", 11),
		shp.FloatField("SUB_AREA", 12, 1),
		shp.FloatField("UP_AREA", 12, 1),
		shp.NumberField("COAST", 1),
	}
	require.NoError(t, w.SetFields(fields))

	for _, c := range cs {
		parts := make([][]shp.Point, 0)
		for i := 0; i < c.Geom.NumPolygons(); i++ {
			poly := c.Geom.Polygon(i)
			for r := 0; r < poly.NumLinearRings(); r++ {
				var ring []shp.Point
				for _, co := range poly.LinearRing(r).Coords() {
					ring = append(ring, shp.Point{X: co.X(), Y: co.Y()})
				}
				parts = append(parts, ring)
			}
		}
		p := shp.Polygon(*shp.NewPolyLine(parts))
		row := int(w.Write(&p))
		require.NoError(t, w.WriteAttribute(row, 0, int(c.ID)))
		require.NoError(t, w.WriteAttribute(row, 1, int(c.NextDown)))
		require.NoError(t, w.WriteAttribute(row, 2, c.SubArea))
		require.NoError(t, w.WriteAttribute(row, 3, c.UpArea))
		require.NoError(t, w.WriteAttribute(row, 4, c.Coast))
	}
	closeShapefile(t, w, path)
	return path
}

// closeShapefile closes w and moves the attribute table to <base>.dbf.
// go-shp's writer names it <base>dbf, which shp.Open never finds.
func closeShapefile(t *testing.T, w *shp.Writer, path string) {
	t.Helper()
	w.Close()

	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	require.FileExists(t, base+".dbf")
}

package hydro

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadShapefile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, "hybas_eu_lev08_v1c.shp", network())
	assert.FileExists(t, filepath.Join(dir, "hybas_eu_lev08_v1c.dbf"))

	cs, err := ReadShapefile(path, 8)
	require.NoError(t, err)
	require.Len(t, cs, 6)

	byID := make(map[int64]Catchment)
	for _, c := range cs {
		byID[c.ID] = c
	}
	c := byID[103]
	assert.Equal(t, int64(101), c.NextDown)
	assert.InDelta(t, 11.9, c.SubArea, 1e-9)
	assert.InDelta(t, 23.0, c.UpArea, 1e-9)
	assert.Equal(t, 8, c.Level)
	require.NotNil(t, c.Geom)
	assert.Equal(t, 4326, c.Geom.SRID())
	assert.True(t, c.Contains(1.5, 1.5))
	assert.Equal(t, 1, byID[200].Coast)
}

func TestReadShapefile_Missing(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "nope.shp"), 8)
	assert.Error(t, err)
}

func TestReadShapefile_NoIDColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 10)}))
	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}}))
	row := int(w.Write(&p))
	require.NoError(t, w.WriteAttribute(row, 0, "x"))
	closeShapefile(t, w, path)

	_, err = ReadShapefile(path, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HYBAS_ID")
}

func TestPolygonToMultiPolygon_Holes(t *testing.T) {
	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}, {X: 1, Y: 1}}
	second := []shp.Point{{X: 10, Y: 10}, {X: 10, Y: 11}, {X: 11, Y: 11}, {X: 11, Y: 10}, {X: 10, Y: 10}}

	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{outer, hole, second}))
	mp := PolygonToMultiPolygon(&p)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())
	assert.Equal(t, 1, mp.Polygon(1).NumLinearRings())

	assert.True(t, ContainsPoint(mp, 0.5, 0.5))
	assert.False(t, ContainsPoint(mp, 2, 2))
	assert.True(t, ContainsPoint(mp, 10.5, 10.5))

	// Both ring boundaries belong to the polygon.
	assert.True(t, ContainsPoint(mp, 0, 2))
	assert.True(t, ContainsPoint(mp, 1, 2))
	assert.True(t, ContainsPoint(mp, 3, 3))
	assert.False(t, ContainsPoint(mp, 1.01, 2))
}

func TestPolygonToMultiPolygon_Degenerate(t *testing.T) {
	assert.Nil(t, PolygonToMultiPolygon(nil))

	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}}))
	assert.Nil(t, PolygonToMultiPolygon(&p))
}

func TestParseInt_FloatFallback(t *testing.T) {
	assert.Equal(t, int64(2080012340), parseInt("2080012340"))
	assert.Equal(t, int64(42), parseInt("42.000"))
	assert.Equal(t, int64(0), parseInt(""))
	assert.Equal(t, int64(0), parseInt("abc"))
}

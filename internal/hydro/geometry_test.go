package hydro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twpayne/go-geom"
)

func TestContainsPoint_Square(t *testing.T) {
	mp := square(0, 0, 1, 1)
	assert.True(t, ContainsPoint(mp, 0.5, 0.5))
	assert.False(t, ContainsPoint(mp, 1.5, 0.5))
	assert.False(t, ContainsPoint(mp, -0.1, 0.5))
}

func TestContainsPoint_Hole(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{
		{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}},
		{{1, 1}, {3, 1}, {3, 3}, {1, 3}, {1, 1}},
	}})
	assert.True(t, ContainsPoint(mp, 0.5, 0.5))
	assert.False(t, ContainsPoint(mp, 2, 2))
	assert.True(t, ContainsPoint(mp, 3.5, 3.5))
}

func TestContainsPoint_MultiPart(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}},
		{{{5, 5}, {5, 6}, {6, 6}, {6, 5}, {5, 5}}},
	})
	assert.True(t, ContainsPoint(mp, 5.5, 5.5))
	assert.False(t, ContainsPoint(mp, 3, 3))
}

func TestContainsPoint_NilOrEmpty(t *testing.T) {
	assert.False(t, ContainsPoint(nil, 0, 0))
	assert.False(t, ContainsPoint(geom.NewMultiPolygon(geom.XY), 0, 0))
}

func TestBounds(t *testing.T) {
	b, ok := Bounds(Filter(network(), []int64{100, 104}))
	assert.True(t, ok)
	assert.Equal(t, BBox{MinLng: 0, MinLat: 0, MaxLng: 3, MaxLat: 2}, b)

	_, ok = Bounds([]Catchment{{ID: 1}})
	assert.False(t, ok)
}

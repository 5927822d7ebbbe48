package hydro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

func TestEncodeEWKB_Nil(t *testing.T) {
	data, err := EncodeEWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestEncodeEWKB_CarriesSRID(t *testing.T) {
	data, err := EncodeEWKB(square(0, 0, 1, 1))
	require.NoError(t, err)
	require.True(t, len(data) > 9)
	// NDR byte order, then a type word with the SRID flag set.
	assert.Equal(t, byte(1), data[0])
	assert.NotZero(t, data[4]&0x20)
}

func TestDecodeWKB_MultiPolygon(t *testing.T) {
	data, err := wkb.Marshal(square(2, 2, 3, 3), wkb.NDR)
	require.NoError(t, err)

	mp, err := DecodeWKB(data)
	require.NoError(t, err)
	assert.True(t, ContainsPoint(mp, 2.5, 2.5))
}

func TestDecodeWKB_PromotesPolygon(t *testing.T) {
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}},
	})
	data, err := wkb.Marshal(poly, wkb.NDR)
	require.NoError(t, err)

	mp, err := DecodeWKB(data)
	require.NoError(t, err)
	assert.Equal(t, 1, mp.NumPolygons())
}

func TestDecodeWKB_WrongType(t *testing.T) {
	data, err := wkb.Marshal(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{1, 2}), wkb.NDR)
	require.NoError(t, err)
	_, err = DecodeWKB(data)
	assert.Error(t, err)
}

func TestDecodeWKB_Empty(t *testing.T) {
	mp, err := DecodeWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, mp)
}

package hydro

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// EncodeEWKB encodes a catchment polygon as EWKB with SRID 4326 for COPY into PostGIS.
func EncodeEWKB(mp *geom.MultiPolygon) ([]byte, error) {
	if mp == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(mp.SetSRID(4326), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: encode EWKB")
	}
	return data, nil
}

// DecodeWKB decodes ST_AsBinary output into a MultiPolygon, promoting a
// single Polygon.
func DecodeWKB(data []byte) (*geom.MultiPolygon, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: decode WKB")
	}
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(t); err != nil {
			return nil, eris.Wrap(err, "hydro: promote polygon")
		}
		return mp, nil
	default:
		return nil, eris.Errorf("hydro: unexpected geometry type %T", g)
	}
}

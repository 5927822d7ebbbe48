package hydro

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection converts catchments to a GeoJSON feature collection with
// the HydroBASINS attributes as properties.
func FeatureCollection(cs []Catchment) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(cs))}
	for i := range cs {
		c := cs[i]
		f := &geojson.Feature{
			ID:         strconv.FormatInt(c.ID, 10),
			Properties: c.Properties(),
		}
		if c.Geom != nil {
			f.Geometry = c.Geom
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// MarshalGeoJSON encodes catchments as a GeoJSON FeatureCollection document.
func MarshalGeoJSON(cs []Catchment) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(cs))
	if err != nil {
		return nil, eris.Wrap(err, "hydro: encode geojson")
	}
	return data, nil
}

package hydro

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

// BBox is a lon/lat bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether the point lies inside the catchment polygon.
// Points strictly inside a hole are outside. Points on the outer ring or on
// a hole's ring count as inside.
func (c *Catchment) Contains(lon, lat float64) bool {
	return ContainsPoint(c.Geom, lon, lat)
}

// ContainsPoint runs a point-in-polygon test against every part of mp.
func ContainsPoint(mp *geom.MultiPolygon, lon, lat float64) bool {
	if mp == nil || mp.Empty() {
		return false
	}
	pt := geom.Coord{lon, lat}
	if !mp.Bounds().OverlapsPoint(geom.XY, pt) {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(geom.XY, pt, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.LocatePointInRing(geom.XY, pt, poly.LinearRing(r).FlatCoords()) == location.Interior {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Bounds returns the combined bounding box of the catchments and false when
// none of them carries geometry.
func Bounds(cs []Catchment) (BBox, bool) {
	b := geom.NewBounds(geom.XY)
	for _, c := range cs {
		if c.Geom == nil || c.Geom.Empty() {
			continue
		}
		b.Extend(c.Geom)
	}
	if b.IsEmpty() {
		return BBox{}, false
	}
	return BBox{MinLng: b.Min(0), MinLat: b.Min(1), MaxLng: b.Max(0), MaxLat: b.Max(1)}, true
}

// Package hydro loads HydroBASINS catchments and resolves upstream drainage sets.
package hydro

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// MinLevel and MaxLevel bound the HydroBASINS Pfafstetter hierarchy.
const (
	MinLevel = 1
	MaxLevel = 12
)

// Catchment is one HydroBASINS sub-basin polygon at a given level.
type Catchment struct {
	ID        int64   `json:"hybas_id"`
	NextDown  int64   `json:"next_down"` // 0 when the catchment drains to the sea or a sink
	NextSink  int64   `json:"next_sink"`
	MainBasin int64   `json:"main_bas"`
	DistSink  float64 `json:"dist_sink"`
	DistMain  float64 `json:"dist_main"`
	SubArea   float64 `json:"sub_area"` // km²
	UpArea    float64 `json:"up_area"`  // km², including all upstream catchments
	PfafID    int64   `json:"pfaf_id"`
	Endo      int     `json:"endo"`
	Coast     int     `json:"coast"`
	Order     int     `json:"order"`
	Sort      int64   `json:"sort"`
	Level     int     `json:"level"`

	Geom *geom.MultiPolygon `json:"-"`
}

// Properties returns the HydroBASINS attribute table row keyed by the
// dataset's upper-case column names.
func (c *Catchment) Properties() map[string]any {
	return map[string]any{
		"HYBAS_ID":  c.ID,
		"NEXT_DOWN": c.NextDown,
		"NEXT_SINK": c.NextSink,
		"MAIN_BAS":  c.MainBasin,
		"DIST_SINK": c.DistSink,
		"DIST_MAIN": c.DistMain,
		"SUB_AREA":  c.SubArea,
		"UP_AREA":   c.UpArea,
		"PFAF_ID":   c.PfafID,
		"ENDO":      c.Endo,
		"COAST":     c.Coast,
		"ORDER":     c.Order,
		"SORT":      c.Sort,
	}
}

// ValidateLevel reports whether level is a HydroBASINS level.
func ValidateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return eris.Errorf("hydro: level %d out of range %d-%d", level, MinLevel, MaxLevel)
	}
	return nil
}

// IDs returns the sorted ids of the given catchments.
func IDs(cs []Catchment) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Filter keeps the catchments whose id is in ids, preserving input order.
func Filter(cs []Catchment, ids []int64) []Catchment {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Catchment
	for _, c := range cs {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

package zonal

import (
	"slices"
	"sort"

	"github.com/sells-group/basin-cli/internal/gfc"
)

// GroupArea is the area of one class, used for the overall pie chart.
type GroupArea struct {
	Group string  `json:"group"`
	Area  float64 `json:"area"`
	Color string  `json:"color"`
}

// CatchmentArea is the area of one catchment, used for the bar chart.
type CatchmentArea struct {
	Basin string  `json:"basin"`
	Area  float64 `json:"area"`
	Color string  `json:"catch_color"`
}

// YearArea is the forest loss of one calendar year.
type YearArea struct {
	Year int     `json:"year"`
	Area float64 `json:"area"`
}

// ByGroup sums area per class in legend order, with the legend colour.
func (t *Table) ByGroup(legend *gfc.Legend) []GroupArea {
	sums := make(map[string]float64)
	for _, r := range t.Rows {
		sums[r.Group] += r.Area
	}
	var out []GroupArea
	for _, c := range legend.Classes {
		if a, ok := sums[c.Label]; ok {
			out = append(out, GroupArea{Group: c.Label, Area: a, Color: c.Color})
		}
	}
	return out
}

// ByCatchment sums area per catchment.
func (t *Table) ByCatchment() []CatchmentArea {
	var out []CatchmentArea
	idx := make(map[string]int)
	for _, r := range t.Rows {
		i, ok := idx[r.Basin]
		if !ok {
			i = len(out)
			idx[r.Basin] = i
			out = append(out, CatchmentArea{Basin: r.Basin, Color: r.CatchColor})
		}
		out[i].Area += r.Area
	}
	return out
}

// LossByYear sums forest loss per calendar year within from..to inclusive.
func (t *Table) LossByYear(from, to int) []YearArea {
	sums := make(map[int]float64)
	for _, r := range t.Rows {
		if r.Year == 0 || r.Year < from || r.Year > to {
			continue
		}
		sums[r.Year] += r.Area
	}
	out := make([]YearArea, 0, len(sums))
	for y, a := range sums {
		out = append(out, YearArea{Year: y, Area: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Filter returns the rows matching group and basins. An empty group or basin
// list matches everything.
func (t *Table) Filter(group string, basins []string) *Table {
	out := &Table{Rows: []Row{}}
	for _, r := range t.Rows {
		if group != "" && r.Group != group {
			continue
		}
		if len(basins) > 0 && !slices.Contains(basins, r.Basin) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

package zonal

import (
	"sort"
	"strconv"

	"github.com/sells-group/basin-cli/internal/gfc"
)

// Row is one (catchment, code) line of the statistics table.
type Row struct {
	Basin      string  `json:"basin"`
	Variable   int     `json:"variable"`
	Group      string  `json:"group"`
	Year       int     `json:"year"`
	Area       float64 `json:"area"` // hectares
	CatchColor string  `json:"catch_color"`
}

// Table is the long-format statistics table.
type Table struct {
	Rows []Row `json:"rows"`
}

// TableOptions control colouring.
type TableOptions struct {
	PaletteSize int
	ColorSeed   int64
}

// BuildTable flattens stats into rows sorted by catchment id then code. Only
// codes present in a catchment produce rows.
func BuildTable(stats Stats, legend *gfc.Legend, opts TableOptions) *Table {
	ids := stats.IDs()
	colors := AssignColors(ids, opts.PaletteSize, opts.ColorSeed)

	t := &Table{Rows: []Row{}}
	for _, id := range ids {
		byCode := stats[id]
		codes := make([]gfc.Code, 0, len(byCode))
		for c := range byCode {
			codes = append(codes, c)
		}
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

		basin := strconv.FormatInt(id, 10)
		for _, c := range codes {
			t.Rows = append(t.Rows, Row{
				Basin:      basin,
				Variable:   int(c),
				Group:      legend.Label(c),
				Year:       c.Year(),
				Area:       byCode[c],
				CatchColor: colors[id],
			})
		}
	}
	return t
}

// Total returns the summed area of every row.
func (t *Table) Total() float64 {
	var sum float64
	for _, r := range t.Rows {
		sum += r.Area
	}
	return sum
}

// Basins returns the distinct catchment ids in table order.
func (t *Table) Basins() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		if !seen[r.Basin] {
			seen[r.Basin] = true
			out = append(out, r.Basin)
		}
	}
	return out
}

// Groups returns the distinct class labels in table order.
func (t *Table) Groups() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		if !seen[r.Group] {
			seen[r.Group] = true
			out = append(out, r.Group)
		}
	}
	return out
}

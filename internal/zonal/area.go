// Package zonal sums classified forest change area per catchment and shapes
// the result into the long-format statistics table.
package zonal

import (
	"math"

	"github.com/sells-group/basin-cli/internal/gfc"
)

// EarthRadius is the authalic radius in metres.
const EarthRadius = 6371007.181

// SquareMetresPerHectare converts m² to ha.
const SquareMetresPerHectare = 10000

// CellArea returns the area in m² of a lon/lat cell res degrees wide
// between two latitudes.
func CellArea(top, bottom, res float64) float64 {
	rad := math.Pi / 180
	return EarthRadius * EarthRadius * res * rad * math.Abs(math.Sin(top*rad)-math.Sin(bottom*rad))
}

// RowAreas returns the pixel area in hectares of every row of g.
func RowAreas(g gfc.Grid) []float64 {
	out := make([]float64, g.Height)
	for row := range out {
		top, bottom := g.RowLat(row)
		out[row] = CellArea(top, bottom, g.Res) / SquareMetresPerHectare
	}
	return out
}

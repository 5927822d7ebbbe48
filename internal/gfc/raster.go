package gfc

import (
	"math"
)

// Bounds is a lon/lat rectangle.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Empty reports whether b encloses no area.
func (b Bounds) Empty() bool {
	return b.East <= b.West || b.North <= b.South
}

// Grid is a north-up geographic raster layout. Res is the pixel size in
// degrees on both axes.
type Grid struct {
	West   float64 `json:"west"`
	North  float64 `json:"north"`
	Res    float64 `json:"res"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// GridFor returns the smallest grid aligned to multiples of res that covers b.
func GridFor(b Bounds, res float64) Grid {
	west := math.Floor(b.West/res+1e-9) * res
	north := math.Ceil(b.North/res-1e-9) * res
	east := math.Ceil(b.East/res-1e-9) * res
	south := math.Floor(b.South/res+1e-9) * res
	return Grid{
		West:   west,
		North:  north,
		Res:    res,
		Width:  int(math.Round((east - west) / res)),
		Height: int(math.Round((north - south) / res)),
	}
}

// Len returns the number of pixels.
func (g Grid) Len() int { return g.Width * g.Height }

// Bounds returns the grid extent.
func (g Grid) Bounds() Bounds {
	return Bounds{
		West:  g.West,
		South: g.North - float64(g.Height)*g.Res,
		East:  g.West + float64(g.Width)*g.Res,
		North: g.North,
	}
}

// PixelCenter returns the lon/lat of a pixel centre.
func (g Grid) PixelCenter(col, row int) (lon, lat float64) {
	return g.West + (float64(col)+0.5)*g.Res, g.North - (float64(row)+0.5)*g.Res
}

// RowLat returns the latitude of the top and bottom edge of a row.
func (g Grid) RowLat(row int) (top, bottom float64) {
	top = g.North - float64(row)*g.Res
	return top, top - g.Res
}

// Window returns the inclusive-exclusive column and row range whose pixels
// intersect b, clamped to the grid.
func (g Grid) Window(b Bounds) (col0, row0, col1, row1 int) {
	col0 = clamp(int(math.Floor((b.West-g.West)/g.Res)), 0, g.Width)
	col1 = clamp(int(math.Ceil((b.East-g.West)/g.Res)), 0, g.Width)
	row0 = clamp(int(math.Floor((g.North-b.North)/g.Res)), 0, g.Height)
	row1 = clamp(int(math.Ceil((g.North-b.South)/g.Res)), 0, g.Height)
	return col0, row0, col1, row1
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Raster holds one forest change code per pixel, row-major from the
// north-west corner.
type Raster struct {
	Grid
	Data []Code
}

// NewRaster allocates a fully masked raster.
func NewRaster(g Grid) *Raster {
	return &Raster{Grid: g, Data: make([]Code, g.Len())}
}

// At returns the code at col, row.
func (r *Raster) At(col, row int) Code {
	return r.Data[row*r.Width+col]
}

// Set writes the code at col, row.
func (r *Raster) Set(col, row int, c Code) {
	r.Data[row*r.Width+col] = c
}

// Counts returns the number of pixels per code, masked pixels excluded.
func (r *Raster) Counts() map[Code]int {
	out := make(map[Code]int)
	for _, c := range r.Data {
		if c != Masked {
			out[c]++
		}
	}
	return out
}

// Stack is the three GFC input bands sampled on one grid.
type Stack struct {
	Grid
	Treecover []uint8
	Lossyear  []uint8
	Gain      []uint8
}

// NewStack allocates a stack with every pixel set to nodata.
func NewStack(g Grid) *Stack {
	s := &Stack{
		Grid:      g,
		Treecover: make([]uint8, g.Len()),
		Lossyear:  make([]uint8, g.Len()),
		Gain:      make([]uint8, g.Len()),
	}
	for i := range s.Treecover {
		s.Treecover[i] = TreecoverNoData
	}
	return s
}

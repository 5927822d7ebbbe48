package gfc

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"
)

// Bands read from every tile.
const (
	BandTreecover = "treecover2000"
	BandLossyear  = "lossyear"
	BandGain      = "gain"
)

// Bands lists the input bands in stack order.
var Bands = []string{BandTreecover, BandLossyear, BandGain}

// TileDegrees is the side of one GFC tile.
const TileDegrees = 10

// ErrNoTiles is returned when none of the tiles covering an area are on disk.
var ErrNoTiles = eris.New("gfc: no tiles cover the requested area")

// TileID names a 10x10 degree tile by its north-west corner.
type TileID struct {
	North int // multiple of 10
	West  int // multiple of 10
}

// TileFor returns the tile containing lon/lat.
func TileFor(lon, lat float64) TileID {
	return TileID{
		North: int(math.Floor(lat/TileDegrees))*TileDegrees + TileDegrees,
		West:  int(math.Floor(lon/TileDegrees)) * TileDegrees,
	}
}

// Suffix formats the tile corner as GFC does, e.g. "10N_020E" or "00N_060W".
func (t TileID) Suffix() string {
	ns, lat := "N", t.North
	if lat < 0 {
		ns, lat = "S", -lat
	}
	ew, lon := "E", t.West
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%02d%s_%03d%s", lat, ns, lon, ew)
}

// TileName returns the GeoTIFF file name of a band of a tile.
func TileName(version, band string, t TileID) string {
	return fmt.Sprintf("Hansen_%s_%s_%s.tif", version, band, t.Suffix())
}

// TilesFor returns every tile intersecting b, north to south then west to east.
func TilesFor(b Bounds) []TileID {
	if b.Empty() {
		return nil
	}
	north := TileFor(b.West, b.North-1e-12).North
	south := TileFor(b.West, b.South).North
	west := TileFor(b.West, b.South).West
	east := TileFor(b.East-1e-12, b.South).West

	var out []TileID
	for n := north; n >= south; n -= TileDegrees {
		for w := west; w <= east; w += TileDegrees {
			out = append(out, TileID{North: n, West: w})
		}
	}
	return out
}

type band struct {
	size int
	pix  []uint8
}

// TileSource reads GFC bands from GeoTIFF tiles in a directory and keeps
// the most recently used decoded bands in memory.
type TileSource struct {
	dir     string
	version string
	cache   *lru.Cache[string, *band]
}

// NewTileSource creates a TileSource caching up to cacheBands decoded bands.
func NewTileSource(dir, version string, cacheBands int) (*TileSource, error) {
	if cacheBands < 1 {
		cacheBands = 1
	}
	cache, err := lru.New[string, *band](cacheBands)
	if err != nil {
		return nil, eris.Wrap(err, "gfc: create tile cache")
	}
	return &TileSource{dir: dir, version: version, cache: cache}, nil
}

// Version returns the dataset version the source reads.
func (s *TileSource) Version() string { return s.version }

// Read samples the three bands over b. stride coarsens the native tile
// resolution by an integer factor, taking each output pixel from the native
// pixel under its centre. Tiles missing from disk read as nodata.
func (s *TileSource) Read(ctx context.Context, b Bounds, stride int) (*Stack, error) {
	if b.Empty() {
		return nil, eris.New("gfc: empty bounds")
	}
	if stride < 1 {
		stride = 1
	}

	tiles := TilesFor(b)
	loaded := make(map[TileID][3]*band, len(tiles))
	res := 0.0
	for _, t := range tiles {
		var bands [3]*band
		for i, name := range Bands {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "gfc: read tiles")
			}
			bd, err := s.band(name, t)
			if err != nil {
				return nil, err
			}
			bands[i] = bd
		}
		if bands[0] == nil {
			zap.L().Warn("gfc: tile missing, reading as nodata",
				zap.String("tile", t.Suffix()), zap.String("version", s.version))
			continue
		}
		loaded[t] = bands
		if res == 0 {
			res = float64(TileDegrees) / float64(bands[0].size)
		}
	}
	if len(loaded) == 0 {
		return nil, ErrNoTiles
	}

	stack := NewStack(GridFor(b, res*float64(stride)))
	for row := 0; row < stack.Height; row++ {
		for col := 0; col < stack.Width; col++ {
			lon, lat := stack.PixelCenter(col, row)
			t := TileFor(lon, lat)
			bands, ok := loaded[t]
			if !ok {
				continue
			}
			size := bands[0].size
			px := int((lon - float64(t.West)) / TileDegrees * float64(size))
			py := int((float64(t.North) - lat) / TileDegrees * float64(size))
			if px < 0 || py < 0 || px >= size || py >= size {
				continue
			}
			i := row*stack.Width + col
			stack.Treecover[i] = bands[0].at(px, py, TreecoverNoData)
			stack.Lossyear[i] = bands[1].at(px, py, 0)
			stack.Gain[i] = bands[2].at(px, py, 0)
		}
	}
	return stack, nil
}

func (b *band) at(x, y int, fallback uint8) uint8 {
	if b == nil || x >= b.size || y >= b.size {
		return fallback
	}
	return b.pix[y*b.size+x]
}

// band returns a decoded band, or nil when its file does not exist.
func (s *TileSource) band(name string, t TileID) (*band, error) {
	file := TileName(s.version, name, t)
	if b, ok := s.cache.Get(file); ok {
		return b, nil
	}

	path := filepath.Join(s.dir, file)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "gfc: open %s", file)
	}
	defer f.Close() //nolint:errcheck

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "gfc: decode %s", file)
	}
	b, err := grayBand(img)
	if err != nil {
		return nil, eris.Wrapf(err, "gfc: %s", file)
	}
	s.cache.Add(file, b)
	zap.L().Debug("gfc: decoded tile band", zap.String("file", file), zap.Int("size", b.size))
	return b, nil
}

func grayBand(img image.Image) (*band, error) {
	r := img.Bounds()
	if r.Dx() != r.Dy() || r.Dx() == 0 {
		return nil, eris.Errorf("tile is %dx%d, want a non-empty square", r.Dx(), r.Dy())
	}
	size := r.Dx()
	pix := make([]uint8, size*size)

	switch m := img.(type) {
	case *image.Gray:
		for y := 0; y < size; y++ {
			copy(pix[y*size:(y+1)*size], m.Pix[y*m.Stride:y*m.Stride+size])
		}
	case *image.Paletted:
		for y := 0; y < size; y++ {
			copy(pix[y*size:(y+1)*size], m.Pix[y*m.Stride:y*m.Stride+size])
		}
	default:
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				g := color.GrayModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.Gray)
				pix[y*size+x] = g.Y
			}
		}
	}
	return &band{size: size, pix: pix}, nil
}

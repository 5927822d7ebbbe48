package zonal

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPaletteSize is the number of distinct catchment colours.
const DefaultPaletteSize = 20

// HLSPalette returns n colours evenly spaced in hue at fixed lightness and
// saturation.
func HLSPalette(n int) []string {
	const (
		hueOffset  = 0.01
		lightness  = 0.6
		saturation = 0.65
	)
	out := make([]string, n)
	for i := range out {
		h := float64(i)/float64(n) + hueOffset
		h -= float64(int(h))
		out[i] = colorful.Hsl(h*360, saturation, lightness).Clamped().Hex()
	}
	return out
}

// AssignColors gives every id a palette colour. The palette is shuffled with
// seed and dealt over the ids in ascending order, wrapping when ids outnumber
// colours. A zero seed is derived from the id set, so the same set always
// gets the same colours; adding or removing an id may move the others.
func AssignColors(ids []int64, size int, seed int64) map[int64]string {
	if size < 1 {
		size = DefaultPaletteSize
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	sorted = dedupe(sorted)

	if seed == 0 {
		seed = seedFor(sorted)
	}
	palette := HLSPalette(size)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	rng.Shuffle(len(palette), func(i, j int) { palette[i], palette[j] = palette[j], palette[i] })

	out := make(map[int64]string, len(sorted))
	for i, id := range sorted {
		out[id] = palette[i%len(palette)]
	}
	return out
}

func seedFor(ids []int64) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		_, _ = h.Write(buf[:])
	}
	return int64(h.Sum64())
}

func dedupe(sorted []int64) []int64 {
	out := sorted[:0]
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

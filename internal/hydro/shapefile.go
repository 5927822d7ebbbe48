package hydro

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// ReadShapefile reads a HydroBASINS polygon shapefile. Records without a
// usable polygon or HYBAS_ID are skipped and counted in a debug log line.
func ReadShapefile(shpPath string, level int) ([]Catchment, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "hydro: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	if _, ok := fieldIdx["HYBAS_ID"]; !ok {
		return nil, eris.Errorf("hydro: %s has no HYBAS_ID column", shpPath)
	}

	attr := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var out []Catchment
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := PolygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		id := parseInt(attr("HYBAS_ID"))
		if id == 0 {
			skipped++
			continue
		}

		out = append(out, Catchment{
			ID:        id,
			NextDown:  parseInt(attr("NEXT_DOWN")),
			NextSink:  parseInt(attr("NEXT_SINK")),
			MainBasin: parseInt(attr("MAIN_BAS")),
			DistSink:  parseFloat(attr("DIST_SINK")),
			DistMain:  parseFloat(attr("DIST_MAIN")),
			SubArea:   parseFloat(attr("SUB_AREA")),
			UpArea:    parseFloat(attr("UP_AREA")),
			PfafID:    parseInt(attr("PFAF_ID")),
			Endo:      int(parseInt(attr("ENDO"))),
			Coast:     int(parseInt(attr("COAST"))),
			Order:     int(parseInt(attr("ORDER"))),
			Sort:      parseInt(attr("SORT")),
			Level:     level,
			Geom:      mp,
		})
	}

	if skipped > 0 {
		zap.L().Debug("hydro: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

// PolygonToMultiPolygon converts a shapefile polygon to a MultiPolygon.
// Clockwise rings open a new polygon; counter-clockwise rings are holes of the
// polygon before them.
func PolygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("hydro: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		hole := current != nil && xy.IsRingCounterClockwise(geom.XY, flat)
		if !hole {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("hydro: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Some exports write integer columns as N(11,0) floats.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

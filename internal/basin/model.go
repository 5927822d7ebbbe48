// Package basin holds the dashboard state: the area of interest, analysis
// parameters, the upstream catchments and the calculated statistics.
package basin

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/observe"
	"github.com/sells-group/basin-cli/internal/zonal"
)

// Selection methods.
const (
	MethodAll    = "all"
	MethodFilter = "filter"
)

// RasterSource reads the GFC input bands for an area.
type RasterSource interface {
	Read(ctx context.Context, b gfc.Bounds, stride int) (*gfc.Stack, error)
}

// Deps are the collaborators a Model computes with.
type Deps struct {
	Resolver   *hydro.Resolver
	Rasters    RasterSource
	Legend     *gfc.Legend
	Aggregator *zonal.Aggregator
	Years      gfc.YearRange
	Stride     int
	Table      zonal.TableOptions
}

// Defaults are the initial parameter values.
type Defaults struct {
	Lat, Lon  float64
	StartYear int
	EndYear   int
	Threshold int
	Level     int
}

// Model is the application state shared by the views of one session. Every
// parameter is an observable field.
type Model struct {
	Lat       *observe.Field[float64]
	Lon       *observe.Field[float64]
	Years     *observe.Field[[]int]
	Threshold *observe.Field[int]
	Level     *observe.Field[int]
	Method    *observe.Field[string]
	Manual    *observe.Field[bool]
	Marker    *observe.Field[bool]

	// SelectedHybas is the subset used in filter mode.
	SelectedHybas *observe.Field[[]int64]
	// HybasinList is the resolved upstream id set.
	HybasinList *observe.Field[[]int64]

	// Dashboard state.
	Ready                *observe.Field[bool]
	SettTimespan         *observe.Field[[]int]
	SelectedVar          *observe.Field[string]
	SelectedHybasidChart *observe.Field[[]string]

	deps Deps
	log  *zap.Logger

	mu         sync.Mutex
	stale      bool
	upstream   *hydro.Upstream
	catchments []hydro.Catchment
	forest     *gfc.Raster
	forestKey  forestKey
	table      *zonal.Table
}

type forestKey struct {
	params gfc.Params
	bounds gfc.Bounds
}

// NewModel creates a Model with the given defaults.
func NewModel(deps Deps, d Defaults) *Model {
	if deps.Legend == nil {
		deps.Legend = gfc.DefaultLegend()
	}
	if deps.Aggregator == nil {
		deps.Aggregator = zonal.NewAggregator(1)
	}
	if deps.Years == (gfc.YearRange{}) {
		deps.Years = gfc.DefaultYears
	}
	if deps.Stride < 1 {
		deps.Stride = 1
	}

	m := &Model{
		Lat:       observe.NewField("lat", d.Lat),
		Lon:       observe.NewField("lon", d.Lon),
		Years:     observe.NewSliceField("years", []int{d.StartYear, d.EndYear}),
		Threshold: observe.NewField("thres", d.Threshold),
		Level:     observe.NewField("level", d.Level),
		Method:    observe.NewField("method", MethodAll),
		Manual:    observe.NewField("manual", false),
		Marker:    observe.NewField("marker", false),

		SelectedHybas: observe.NewSliceField[int64]("selected_hybas", nil),
		HybasinList:   observe.NewSliceField[int64]("hybasin_list", nil),

		Ready:                observe.NewField("ready", false),
		SettTimespan:         observe.NewSliceField("sett_timespan", []int{d.StartYear, d.EndYear}),
		SelectedVar:          observe.NewField("selected_var", ""),
		SelectedHybasidChart: observe.NewSliceField[string]("selected_hybasid_chart", nil),

		deps:  deps,
		log:   zap.L().With(zap.String("component", "basin.model")),
		stale: true,
	}

	markStale := func() {
		m.mu.Lock()
		m.stale = true
		m.mu.Unlock()
	}
	m.Lat.Observe(func(observe.Change[float64]) { markStale() })
	m.Lon.Observe(func(observe.Change[float64]) { markStale() })
	m.Level.Observe(func(observe.Change[int]) { markStale() })

	dropForest := func() {
		m.mu.Lock()
		m.forest = nil
		m.mu.Unlock()
	}
	m.Years.Observe(func(observe.Change[[]int]) { dropForest() })
	m.Threshold.Observe(func(observe.Change[int]) { dropForest() })

	// A new upstream set invalidates a selection that is no longer part of it.
	m.HybasinList.Observe(func(c observe.Change[[]int64]) {
		sel := m.SelectedHybas.Get()
		kept := slices.DeleteFunc(slices.Clone(sel), func(id int64) bool {
			return !slices.Contains(c.New, id)
		})
		m.SelectedHybas.Set(kept)
	})
	return m
}

// Deps returns the model collaborators.
func (m *Model) Deps() Deps { return m.deps }

// ParseCoordinates parses text coordinates as entered in the coordinate form.
func ParseCoordinates(lat, lon string) (float64, float64, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(ErrInvalidCoordinates, "latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(ErrInvalidCoordinates, "longitude %q", lon)
	}
	return la, lo, nil
}

// ValidateCoordinates checks a lat/lon pair.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return eris.Wrap(ErrInvalidCoordinates, "not a number")
	}
	if lat < -90 || lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinates, "latitude %g outside -90..90", lat)
	}
	if lon < -180 || lon > 180 {
		return eris.Wrapf(ErrInvalidCoordinates, "longitude %g outside -180..180", lon)
	}
	return nil
}

// SetCoordinates updates the AOI point without placing a marker.
func (m *Model) SetCoordinates(lat, lon float64) error {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return err
	}
	m.Lat.Set(lat)
	m.Lon.Set(lon)
	return nil
}

// PlaceMarker sets the AOI point and marks it as chosen.
func (m *Model) PlaceMarker(lat, lon float64) error {
	if err := m.SetCoordinates(lat, lon); err != nil {
		return err
	}
	m.Marker.Set(true)
	return nil
}

// SetYears updates the loss window.
func (m *Model) SetYears(start, end int) error {
	p := gfc.Params{Threshold: m.Threshold.Get(), StartYear: start, EndYear: end}
	if err := p.Validate(m.deps.Years); err != nil {
		return err
	}
	m.Years.Set([]int{start, end})
	return nil
}

// SetThreshold updates the tree cover threshold.
func (m *Model) SetThreshold(t int) error {
	p := m.Params()
	p.Threshold = t
	if err := p.Validate(m.deps.Years); err != nil {
		return err
	}
	m.Threshold.Set(t)
	return nil
}

// SetLevel updates the catchment level.
func (m *Model) SetLevel(level int) error {
	if err := hydro.ValidateLevel(level); err != nil {
		return err
	}
	m.Level.Set(level)
	return nil
}

// SetMethod switches between all upstream catchments and a selected subset.
func (m *Model) SetMethod(method string) error {
	if method != MethodAll && method != MethodFilter {
		return eris.Wrapf(ErrInvalidMethod, "%q", method)
	}
	m.Method.Set(method)
	return nil
}

// Params returns the classification parameters.
func (m *Model) Params() gfc.Params {
	years := m.Years.Get()
	return gfc.Params{Threshold: m.Threshold.Get(), StartYear: years[0], EndYear: years[1]}
}

// Refresh resolves the upstream catchments again if the point or level
// changed since the last resolution and a marker is set.
func (m *Model) Refresh(ctx context.Context) error {
	m.mu.Lock()
	stale := m.stale
	m.mu.Unlock()
	if !stale || !m.Marker.Get() {
		return nil
	}
	_, err := m.ResolveUpstream(ctx)
	return err
}

// ResolveUpstream finds the catchments upstream of the marker at the current
// level and publishes their ids on HybasinList.
func (m *Model) ResolveUpstream(ctx context.Context) (*hydro.Upstream, error) {
	if !m.Marker.Get() {
		return nil, ErrNoAOI
	}
	if m.deps.Resolver == nil {
		return nil, eris.New("basin: no resolver configured")
	}
	level, lat, lon := m.Level.Get(), m.Lat.Get(), m.Lon.Get()

	up, err := m.deps.Resolver.Resolve(ctx, level, lon, lat)
	if err != nil {
		return nil, eris.Wrap(err, "basin: resolve upstream")
	}
	cs, err := m.deps.Resolver.Source().Catchments(ctx, level, up.IDs)
	if err != nil {
		return nil, eris.Wrap(err, "basin: load upstream catchments")
	}

	m.mu.Lock()
	m.upstream = up
	m.catchments = cs
	m.stale = false
	m.forest = nil
	m.mu.Unlock()

	m.HybasinList.Set(up.IDs)
	m.log.Info("upstream resolved",
		zap.Int("level", level),
		zap.Float64("lat", lat), zap.Float64("lon", lon),
		zap.Int("catchments", len(up.IDs)),
		zap.Bool("truncated", up.Truncated),
	)
	return up, nil
}

// Upstream returns the last resolution, or nil.
func (m *Model) Upstream() *hydro.Upstream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upstream
}

// Catchments returns the resolved upstream catchments.
func (m *Model) Catchments() []hydro.Catchment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catchments
}

// Selected returns the resolved catchments with the given ids.
func (m *Model) Selected(ids []int64) []hydro.Catchment {
	return hydro.Filter(m.Catchments(), ids)
}

// SelectedGeoJSON encodes the resolved catchments with the given ids.
func (m *Model) SelectedGeoJSON(ids []int64) ([]byte, error) {
	return hydro.MarshalGeoJSON(m.Selected(ids))
}

// Bounds returns the extent of the resolved catchments with the given ids.
func (m *Model) Bounds(ids []int64) (hydro.BBox, bool) {
	return hydro.Bounds(m.Selected(ids))
}

// TargetIDs returns the ids statistics are computed for under the current
// selection method.
func (m *Model) TargetIDs() ([]int64, error) {
	if m.Method.Get() == MethodFilter {
		sel := m.SelectedHybas.Get()
		if len(sel) == 0 {
			return nil, ErrNoSubcatchment
		}
		return sel, nil
	}
	if err := m.requireResolved(); err != nil {
		return nil, err
	}
	return m.HybasinList.Get(), nil
}

func (m *Model) requireResolved() error {
	if m.Upstream() != nil {
		return nil
	}
	if !m.Marker.Get() {
		return ErrNoAOI
	}
	return ErrNotResolved
}

// ForestChange classifies the GFC rasters over the given catchments. The
// raster is reused until the parameters or the covered area change.
func (m *Model) ForestChange(ctx context.Context, cs []hydro.Catchment) (*gfc.Raster, error) {
	if m.deps.Rasters == nil {
		return nil, eris.New("basin: no raster source configured")
	}
	bb, ok := hydro.Bounds(cs)
	if !ok {
		return nil, eris.New("basin: catchments have no geometry")
	}
	key := forestKey{
		params: m.Params(),
		bounds: gfc.Bounds{West: bb.MinLng, South: bb.MinLat, East: bb.MaxLng, North: bb.MaxLat},
	}

	m.mu.Lock()
	if m.forest != nil && m.forestKey == key {
		r := m.forest
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	if err := key.params.Validate(m.deps.Years); err != nil {
		return nil, err
	}
	stack, err := m.deps.Rasters.Read(ctx, key.bounds, m.deps.Stride)
	if err != nil {
		return nil, eris.Wrap(err, "basin: read forest rasters")
	}
	r := gfc.ClassifyStack(stack, key.params)

	m.mu.Lock()
	m.forest = r
	m.forestKey = key
	m.mu.Unlock()
	return r, nil
}

// CalculateStatistics computes the zonal statistics table for the target
// catchments and publishes it. In filter mode an empty selection fails with
// ErrNoSubcatchment.
func (m *Model) CalculateStatistics(ctx context.Context) (*zonal.Table, error) {
	ids, err := m.TargetIDs()
	if err != nil {
		return nil, err
	}
	if err := m.requireResolved(); err != nil {
		return nil, err
	}
	cs := m.Selected(ids)
	if len(cs) == 0 {
		return nil, eris.Wrap(ErrNoSubcatchment, "none of the selected ids are upstream of the marker")
	}

	// The previous table stays only until a new calculation starts, so a
	// failed run leaves neither Ready nor a stale table behind.
	m.mu.Lock()
	m.table = nil
	m.mu.Unlock()
	m.Ready.Set(false)

	r, err := m.ForestChange(ctx, cs)
	if err != nil {
		return nil, err
	}
	stats, err := m.deps.Aggregator.Aggregate(ctx, r, cs)
	if err != nil {
		return nil, eris.Wrap(err, "basin: zonal statistics")
	}
	t := zonal.BuildTable(stats, m.deps.Legend, m.deps.Table)

	m.mu.Lock()
	m.table = t
	m.mu.Unlock()

	m.SettTimespan.Set(slices.Clone(m.Years.Get()))
	m.SelectedVar.Set("")
	m.SelectedHybasidChart.Set(nil)
	m.Ready.Set(true)

	m.log.Info("statistics calculated",
		zap.Int("catchments", len(cs)),
		zap.Int("rows", len(t.Rows)),
		zap.Float64("area_ha", t.Total()),
	)
	return t, nil
}

// Table returns the last calculated table, or nil.
func (m *Model) Table() *zonal.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table
}

package view

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/observe"
)

// Map layer names.
const (
	LayerUpstream = "upstream"
	LayerSelected = "selected"
)

// Card ids.
const (
	CardAOI   = "aoi_tile"
	CardStats = "statistics_tile"
)

// Views is the widget set of one session.
type Views struct {
	Labels      *Labels
	Map         *Map
	Coordinates *CoordinatesView
	Metadata    *MetadataTable
	Years       *DateSlider
	Drawer      *Drawer

	model     *basin.Model
	yearsLink *observe.Binding[[]int, []int]
	log       *zap.Logger
}

// Snapshot is the serialisable state of the widgets.
type Snapshot struct {
	Language    string        `json:"language"`
	Map         MapState      `json:"map"`
	Manual      bool          `json:"manual"`
	Lat         string        `json:"lat"`
	Lon         string        `json:"lon"`
	Disabled    bool          `json:"disabled"`
	Linked      bool          `json:"linked"`
	Metadata    []MetadataRow `json:"metadata"`
	YearLabel   string        `json:"year_label"`
	YearMin     int           `json:"year_min"`
	YearMax     int           `json:"year_max"`
	Years       []int         `json:"years"`
	StatsAlert  bool          `json:"stats_alert"`
	StatsLocked bool          `json:"stats_disabled"`
	Shown       string        `json:"shown"`
}

// New builds the widgets around model. accept selects the label language.
func New(model *basin.Model, accept string) *Views {
	labels := NewLabels(accept)
	m := NewMap(model.Lat.Get(), model.Lon.Get(), 3)
	v := &Views{
		Labels:      labels,
		Map:         m,
		Coordinates: NewCoordinatesView(model, m),
		Metadata:    NewMetadataTable(nil, labels),
		Years:       NewDateSlider(model.Deps().Years, labels),
		Drawer: &Drawer{Items: []*DrawerItem{
			{Title: labels.Get(LabelUpstream), CardID: CardAOI},
			NewDrawerItem(labels.Get(LabelStats), CardStats, model.Ready),
		}},
		model: model,
		log:   zap.L().With(zap.String("component", "view")),
	}
	v.yearsLink = v.Years.BindTo(model.Years)

	model.HybasinList.Observe(func(observe.Change[[]int64]) { v.drawUpstream() })
	model.SelectedHybas.Observe(func(c observe.Change[[]int64]) { v.drawSelected(c.New) })
	return v
}

func (v *Views) drawUpstream() {
	cs := v.model.Catchments()
	v.Map.RemoveLayer(LayerSelected)
	v.Metadata.Reset()
	if len(cs) == 0 {
		v.Map.RemoveLayer(LayerUpstream)
		return
	}
	data, err := hydro.MarshalGeoJSON(cs)
	if err != nil {
		v.log.Error("draw upstream layer", zap.Error(err))
		return
	}
	v.Map.AddLayer(Layer{Name: LayerUpstream, GeoJSON: data, Color: "#2b83ba"})
	if bb, ok := hydro.Bounds(cs); ok {
		v.Map.SetCenter((bb.MinLng+bb.MaxLng)/2, (bb.MinLat+bb.MaxLat)/2)
	}
}

func (v *Views) drawSelected(ids []int64) {
	if len(ids) == 0 {
		v.Map.RemoveLayer(LayerSelected)
		return
	}
	data, err := v.model.SelectedGeoJSON(ids)
	if err != nil {
		v.log.Error("draw selected layer", zap.Error(err))
		return
	}
	v.Map.AddLayer(Layer{Name: LayerSelected, GeoJSON: data, Color: "#fdae61"})
}

// Inspect shows the metadata of a resolved upstream catchment.
func (v *Views) Inspect(id int64) error {
	cs := v.model.Selected([]int64{id})
	if len(cs) == 0 {
		return eris.Errorf("view: catchment %d is not upstream of the marker", id)
	}
	v.Metadata.Update(cs[0].Properties())
	return nil
}

// Snapshot returns the serialisable widget state.
func (v *Views) Snapshot() Snapshot {
	stats := v.Drawer.Items[1]
	return Snapshot{
		Language:    v.Labels.Tag().String(),
		Map:         v.Map.State(),
		Manual:      v.Coordinates.Manual.Get(),
		Lat:         v.Coordinates.Lat.Get(),
		Lon:         v.Coordinates.Lon.Get(),
		Disabled:    v.Coordinates.Disabled.Get(),
		Linked:      v.Coordinates.Linked(),
		Metadata:    v.Metadata.Rows(),
		YearLabel:   v.Years.Label,
		YearMin:     v.Years.Min,
		YearMax:     v.Years.Max,
		Years:       v.Years.Value.Get(),
		StatsAlert:  stats.Alert(),
		StatsLocked: stats.Disabled(),
		Shown:       v.Drawer.Shown(),
	}
}

package view

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/observe"
)

// ErrManualOff is returned by Use while coordinates follow the map.
var ErrManualOff = eris.New("view: manual coordinate entry is off")

// CoordinatesView captures a point either from map clicks or from typed
// coordinates. In map mode the text fields mirror the model; in manual mode
// they are detached until Use sends them.
type CoordinatesView struct {
	Manual *observe.Field[bool]
	Lat    *observe.Field[string]
	Lon    *observe.Field[string]

	// Disabled is true while the text fields and the use button are inactive.
	Disabled *observe.Field[bool]

	model *basin.Model
	m     *Map
	log   *zap.Logger

	manualLink *observe.Binding[bool, bool]
	latLink    *observe.Binding[float64, string]
	lonLink    *observe.Binding[float64, string]
}

// NewCoordinatesView wires the view to the model and map.
func NewCoordinatesView(model *basin.Model, m *Map) *CoordinatesView {
	v := &CoordinatesView{
		Manual:   observe.NewField("w_manual", false),
		Lat:      observe.NewField("w_lat", ""),
		Lon:      observe.NewField("w_lon", ""),
		Disabled: observe.NewField("disabled", true),
		model:    model,
		m:        m,
		log:      zap.L().With(zap.String("component", "view.coordinates")),
	}

	v.manualLink = observe.Bind[bool](model.Manual, v.Manual)
	v.latLink = textBinding(model.Lat, v.Lat, func(f float64) error { return basin.ValidateCoordinates(f, 0) })
	v.lonLink = textBinding(model.Lon, v.Lon, func(f float64) error { return basin.ValidateCoordinates(0, f) })

	v.manualLink.Connect()
	v.latLink.Connect()
	v.lonLink.Connect()

	v.Manual.Observe(func(observe.Change[bool]) { v.toggle() })
	v.toggle()

	m.OnClick(v.click)
	return v
}

// textBinding mirrors a model coordinate in a text field. Text that does not
// parse or fails check leaves the model value unchanged.
func textBinding(source *observe.Field[float64], target *observe.Field[string], check func(float64) error) *observe.Binding[float64, string] {
	return observe.BindFunc[float64, string](source, target,
		formatCoord,
		func(s string) float64 {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil || check(f) != nil {
				return source.Get()
			}
			return f
		},
	)
}

func formatCoord(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Linked reports whether the text fields follow the model.
func (v *CoordinatesView) Linked() bool {
	return v.latLink.Connected() && v.lonLink.Connected()
}

func (v *CoordinatesView) toggle() {
	v.m.RestoreCoordinates()

	manual := v.model.Manual.Get()
	v.Disabled.Set(!manual)
	if manual {
		v.latLink.Disconnect()
		v.lonLink.Disconnect()
		return
	}
	v.latLink.Connect()
	v.lonLink.Connect()
}

// SetText fills the text fields as a user typing would. While the fields
// follow the map the pair must be a valid point, otherwise nothing changes
// and ErrInvalidCoordinates is returned. Manual text is checked by Use.
func (v *CoordinatesView) SetText(lat, lon string) error {
	if v.Linked() {
		la, lo, err := basin.ParseCoordinates(lat, lon)
		if err != nil {
			return err
		}
		if err := basin.ValidateCoordinates(la, lo); err != nil {
			return err
		}
	}
	v.Lat.Set(lat)
	v.Lon.Set(lon)
	return nil
}

// Use sends the typed coordinates to the model: the map is cleared of
// earlier manual markers, a marker is drawn at the point, the map is
// centred on it and the model marker flag is set.
func (v *CoordinatesView) Use() error {
	if !v.model.Manual.Get() {
		return ErrManualOff
	}
	lat, lon, err := basin.ParseCoordinates(v.Lat.Get(), v.Lon.Get())
	if err != nil {
		return err
	}
	if err := basin.ValidateCoordinates(lat, lon); err != nil {
		return err
	}

	v.m.RestoreCoordinates()
	if err := v.model.SetCoordinates(lat, lon); err != nil {
		return err
	}
	v.m.AddMarker(Marker{Lat: lat, Lon: lon, Manual: true})
	v.m.SetCenter(lon, lat)
	v.model.Marker.Set(true)

	v.log.Debug("manual coordinates used", zap.Float64("lat", lat), zap.Float64("lon", lon))
	return nil
}

func (v *CoordinatesView) click(lat, lon float64) {
	if v.model.Manual.Get() {
		return
	}
	if err := v.model.PlaceMarker(lat, lon); err != nil {
		v.log.Warn("map click ignored", zap.Error(err))
		return
	}
	v.m.SetMarker(lat, lon)
}

package view

import (
	"encoding/json"
	"slices"
	"sync"
)

// Layer is one overlay on the map.
type Layer struct {
	Name    string          `json:"name"`
	GeoJSON json.RawMessage `json:"geojson,omitempty"`
	Color   string          `json:"color,omitempty"`
}

// Marker is a point drawn on the map.
type Marker struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Manual bool    `json:"manual"`
}

// MapState is a snapshot of the map.
type MapState struct {
	Center  [2]float64 `json:"center"` // lat, lon
	Zoom    int        `json:"zoom"`
	Layers  []Layer    `json:"layers"`
	Markers []Marker   `json:"markers"`
}

// Map records the layers, markers and view of a map without drawing it.
// Clicks are delivered to registered handlers.
type Map struct {
	mu      sync.Mutex
	state   MapState
	onClick []func(lat, lon float64)
}

// NewMap creates a map centred on lat/lon.
func NewMap(lat, lon float64, zoom int) *Map {
	return &Map{state: MapState{Center: [2]float64{lat, lon}, Zoom: zoom}}
}

// AddLayer adds a layer, replacing any layer with the same name.
func (m *Map) AddLayer(l Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Layers = slices.DeleteFunc(m.state.Layers, func(x Layer) bool { return x.Name == l.Name })
	m.state.Layers = append(m.state.Layers, l)
}

// RemoveLayer removes the named layer and reports whether it existed.
func (m *Map) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.state.Layers)
	m.state.Layers = slices.DeleteFunc(m.state.Layers, func(x Layer) bool { return x.Name == name })
	return len(m.state.Layers) != n
}

// Layer returns the named layer.
func (m *Map) Layer(name string) (Layer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.state.Layers, func(x Layer) bool { return x.Name == name })
	if i < 0 {
		return Layer{}, false
	}
	return m.state.Layers[i], true
}

// AddMarker draws a marker.
func (m *Map) AddMarker(mk Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Markers = append(m.state.Markers, mk)
}

// SetMarker replaces every non-manual marker with one at lat/lon.
func (m *Map) SetMarker(lat, lon float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Markers = slices.DeleteFunc(m.state.Markers, func(x Marker) bool { return !x.Manual })
	m.state.Markers = append(m.state.Markers, Marker{Lat: lat, Lon: lon})
}

// RestoreCoordinates clears the markers placed by coordinate entry.
func (m *Map) RestoreCoordinates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Markers = slices.DeleteFunc(m.state.Markers, func(x Marker) bool { return x.Manual })
}

// SetCenter moves the view.
func (m *Map) SetCenter(lon, lat float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Center = [2]float64{lat, lon}
}

// OnClick registers a click handler.
func (m *Map) OnClick(fn func(lat, lon float64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClick = append(m.onClick, fn)
}

// Click delivers a click at lat/lon to the handlers.
func (m *Map) Click(lat, lon float64) {
	m.mu.Lock()
	handlers := slices.Clone(m.onClick)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn(lat, lon)
	}
}

// State returns a copy of the current map state.
func (m *Map) State() MapState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Layers = slices.Clone(s.Layers)
	s.Markers = slices.Clone(s.Markers)
	return s
}

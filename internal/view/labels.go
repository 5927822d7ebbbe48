// Package view holds the headless widgets of the dashboard: coordinate
// entry, catchment metadata, the year slider, drawer notifications and a
// map that records what would be drawn.
package view

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Label keys.
const (
	LabelLatitude  = "Latitude"
	LabelLongitude = "Longitude"
	LabelManual    = "Manual"
	LabelYear      = "Year"
	LabelArea      = "Area (ha)"
	LabelStats     = "Statistics"
	LabelUpstream  = "Upstream catchments"
	LabelMarker    = "Selected point"
)

// Supported lists the languages with a translated catalog.
var Supported = []language.Tag{language.English, language.French, language.Spanish}

var matcher = language.NewMatcher(Supported)

func init() {
	set := func(tag language.Tag, pairs ...string) {
		for i := 0; i+1 < len(pairs); i += 2 {
			_ = message.SetString(tag, pairs[i], pairs[i+1])
		}
	}
	set(language.French,
		LabelLatitude, "Latitude",
		LabelLongitude, "Longitude",
		LabelManual, "Manuel",
		LabelYear, "Année",
		LabelArea, "Surface (ha)",
		LabelStats, "Statistiques",
		LabelUpstream, "Bassins amont",
		LabelMarker, "Point sélectionné",
	)
	set(language.Spanish,
		LabelLatitude, "Latitud",
		LabelLongitude, "Longitud",
		LabelManual, "Manual",
		LabelYear, "Año",
		LabelArea, "Área (ha)",
		LabelStats, "Estadísticas",
		LabelUpstream, "Cuencas aguas arriba",
		LabelMarker, "Punto seleccionado",
	)
}

// Labels translates widget labels and formats numbers for one language.
type Labels struct {
	tag language.Tag
	p   *message.Printer
}

// NewLabels returns labels for the best supported match of accept, an
// Accept-Language style list. An empty list selects English.
func NewLabels(accept string) *Labels {
	tag := language.English
	if accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			_, idx, _ := matcher.Match(tags...)
			tag = Supported[idx]
		}
	}
	return &Labels{tag: tag, p: message.NewPrinter(tag)}
}

// Tag returns the language in use.
func (l *Labels) Tag() language.Tag { return l.tag }

// Get translates a label key.
func (l *Labels) Get(key string) string { return l.p.Sprintf(key) }

// Number formats v with at most two fraction digits and locale grouping.
func (l *Labels) Number(v float64) string {
	return l.p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Format formats any value the way the printer would.
func (l *Labels) Format(v any) string {
	switch x := v.(type) {
	case float64:
		return l.Number(x)
	case float32:
		return l.Number(float64(x))
	case int64:
		// Ids must not be grouped.
		return strconv.FormatInt(x, 10)
	}
	return l.p.Sprint(v)
}

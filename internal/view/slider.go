package view

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/observe"
)

// DateSlider selects a year range within the years the forest data covers.
type DateSlider struct {
	Label string
	Min   int
	Max   int
	Value *observe.Field[[]int]
}

// NewDateSlider creates a slider spanning years, initially fully open.
func NewDateSlider(years gfc.YearRange, labels *Labels) *DateSlider {
	if labels == nil {
		labels = NewLabels("")
	}
	return &DateSlider{
		Label: labels.Get(LabelYear),
		Min:   years.Min,
		Max:   years.Max,
		Value: observe.NewSliceField("v_model", []int{years.Min, years.Max}),
	}
}

// Set moves the thumbs. The range must be ordered and inside Min..Max.
func (s *DateSlider) Set(from, to int) error {
	if from > to || from < s.Min || to > s.Max {
		return eris.Wrapf(gfc.ErrInvalidParams, "years %d-%d outside %d-%d", from, to, s.Min, s.Max)
	}
	s.Value.Set([]int{from, to})
	return nil
}

// BindTo keeps a model year field and the slider in sync, the model winning
// on connect.
func (s *DateSlider) BindTo(years *observe.Field[[]int]) *observe.Binding[[]int, []int] {
	clone := func(v []int) []int { return slices.Clone(v) }
	b := observe.BindFunc[[]int, []int](years, s.Value, clone, clone)
	b.Connect()
	return b
}

package gfc

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestCode_LossAndYear(t *testing.T) {
	assert.True(t, Code(1).IsLoss())
	assert.True(t, Code(22).IsLoss())
	assert.False(t, Masked.IsLoss())
	assert.False(t, NonForest.IsLoss())
	assert.False(t, GainLoss.IsLoss())

	assert.Equal(t, 2015, Code(15).Year())
	assert.Equal(t, 0, StableForest.Year())
	assert.Equal(t, Code(12), LossCode(2012))
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", Params{Threshold: 80, StartYear: 2010, EndYear: 2020}, false},
		{"single year", Params{Threshold: 30, StartYear: 2015, EndYear: 2015}, false},
		{"full range", Params{Threshold: 0, StartYear: 2001, EndYear: 2022}, false},
		{"threshold high", Params{Threshold: 101, StartYear: 2010, EndYear: 2020}, true},
		{"threshold negative", Params{Threshold: -1, StartYear: 2010, EndYear: 2020}, true},
		{"reversed", Params{Threshold: 80, StartYear: 2020, EndYear: 2010}, true},
		{"before dataset", Params{Threshold: 80, StartYear: 2000, EndYear: 2010}, true},
		{"after dataset", Params{Threshold: 80, StartYear: 2010, EndYear: 2023}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(DefaultYears)
			if tt.wantErr {
				assert.True(t, eris.Is(err, ErrInvalidParams), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

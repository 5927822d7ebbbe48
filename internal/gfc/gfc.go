// Package gfc classifies Hansen Global Forest Change rasters into forest
// change codes for a year window and tree-cover threshold.
package gfc

import (
	"github.com/rotisserie/eris"
)

// Code is a per-pixel forest change class. Loss pixels carry the loss year
// as an offset from 2000.
type Code uint8

// Forest change codes.
const (
	Masked       Code = 0
	NonForest    Code = 30
	StableForest Code = 40
	Gain         Code = 50
	GainLoss     Code = 51
)

// Raw band sentinels.
const (
	TreecoverNoData uint8 = 255
	LossNoData      uint8 = 255
)

// BaseYear is the calendar year that loss offsets count from.
const BaseYear = 2000

// ErrInvalidParams is returned for a threshold or year window the dataset
// cannot serve.
var ErrInvalidParams = eris.New("gfc: invalid parameters")

// IsLoss reports whether c is a loss-year code.
func (c Code) IsLoss() bool {
	return c > Masked && c < NonForest
}

// Year returns the calendar loss year for a loss code and 0 otherwise.
func (c Code) Year() int {
	if !c.IsLoss() {
		return 0
	}
	return BaseYear + int(c)
}

// LossCode returns the code for forest lost in a calendar year.
func LossCode(year int) Code {
	return Code(year - BaseYear)
}

// YearRange is the span of loss years a dataset version covers.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultYears is the coverage of GFC-2022-v1.10.
var DefaultYears = YearRange{Min: 2001, Max: 2022}

// Params select the forest definition and the loss window.
type Params struct {
	Threshold int `json:"threshold"`  // percent canopy cover in 2000
	StartYear int `json:"start_year"` // first loss year counted, inclusive
	EndYear   int `json:"end_year"`   // last loss year counted, inclusive
}

// Validate checks p against the years the dataset covers.
func (p Params) Validate(years YearRange) error {
	if p.Threshold < 0 || p.Threshold > 100 {
		return eris.Wrapf(ErrInvalidParams, "threshold %d outside 0-100", p.Threshold)
	}
	if p.StartYear > p.EndYear {
		return eris.Wrapf(ErrInvalidParams, "start year %d after end year %d", p.StartYear, p.EndYear)
	}
	if p.StartYear < years.Min || p.EndYear > years.Max {
		return eris.Wrapf(ErrInvalidParams, "years %d-%d outside dataset range %d-%d",
			p.StartYear, p.EndYear, years.Min, years.Max)
	}
	return nil
}

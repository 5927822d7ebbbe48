package basin

import (
	"strconv"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/zonal"
)

// Dashboard is the chart-ready view of the last calculated table under the
// current dashboard filters.
type Dashboard struct {
	Ready      bool                  `json:"ready"`
	Timespan   []int                 `json:"timespan"`
	Variable   string                `json:"selected_var"`
	Basins     []string              `json:"selected_hybasid_chart"`
	Overall    []zonal.GroupArea     `json:"overall"`
	Catchments []zonal.CatchmentArea `json:"catchments"`
	LossByYear []zonal.YearArea      `json:"loss_by_year"`
	Total      float64               `json:"total_area"`
}

// Dashboard summarises the current table. The pie covers every class; the
// bar chart follows the selected class; the loss series follows the selected
// catchments and time span.
func (m *Model) Dashboard() Dashboard {
	d := Dashboard{
		Ready:    m.Ready.Get(),
		Timespan: m.SettTimespan.Get(),
		Variable: m.SelectedVar.Get(),
		Basins:   m.SelectedHybasidChart.Get(),
	}
	t := m.Table()
	if t == nil {
		return d
	}

	d.Overall = t.ByGroup(m.deps.Legend)
	d.Catchments = t.Filter(d.Variable, nil).ByCatchment()
	span := d.Timespan
	d.LossByYear = t.Filter("", d.Basins).LossByYear(span[0], span[1])
	d.Total = t.Total()
	return d
}

// SelectChartCatchments sets the dashboard catchment filter from ids.
func (m *Model) SelectChartCatchments(ids []int64) {
	basins := make([]string, len(ids))
	for i, id := range ids {
		basins[i] = strconv.FormatInt(id, 10)
	}
	m.SelectedHybasidChart.Set(basins)
}

// SetTimespan narrows the loss-by-year series.
func (m *Model) SetTimespan(from, to int) error {
	p := gfc.Params{Threshold: m.Threshold.Get(), StartYear: from, EndYear: to}
	if err := p.Validate(m.deps.Years); err != nil {
		return err
	}
	m.SettTimespan.Set([]int{from, to})
	return nil
}

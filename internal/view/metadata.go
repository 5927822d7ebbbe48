package view

import "sync"

// DefaultDisplayProps are the catchment attributes shown in the metadata table.
var DefaultDisplayProps = []string{"HYBAS_ID", "NEXT_DOWN", "SUB_AREA", "UP_AREA", "PFAF_ID", "ORDER"}

// MetadataRow is one header/value pair.
type MetadataRow struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

// MetadataTable shows the display attributes of one catchment.
type MetadataTable struct {
	props  []string
	labels *Labels

	mu      sync.Mutex
	rows    []MetadataRow
	visible bool
}

// NewMetadataTable creates an empty, hidden table. Nil props selects
// DefaultDisplayProps.
func NewMetadataTable(props []string, labels *Labels) *MetadataTable {
	if props == nil {
		props = DefaultDisplayProps
	}
	if labels == nil {
		labels = NewLabels("")
	}
	return &MetadataTable{props: props, labels: labels}
}

// Update shows data restricted to the display properties, in display order.
func (t *MetadataTable) Update(data map[string]any) {
	rows := make([]MetadataRow, 0, len(t.props))
	for _, p := range t.props {
		v, ok := data[p]
		if !ok {
			continue
		}
		rows = append(rows, MetadataRow{Header: p, Value: t.labels.Format(v)})
	}

	t.mu.Lock()
	t.rows = rows
	t.visible = true
	t.mu.Unlock()
}

// Reset empties the table.
func (t *MetadataTable) Reset() {
	t.mu.Lock()
	t.rows = nil
	t.mu.Unlock()
}

// Rows returns the displayed rows.
func (t *MetadataTable) Rows() []MetadataRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows
}

// Visible reports whether the table has been shown.
func (t *MetadataTable) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

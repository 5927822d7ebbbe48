package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/store"
	"github.com/sells-group/basin-cli/internal/view"
	"github.com/sells-group/basin-cli/internal/zonal"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"upstream", "stats", "hydro", "forest", "runs", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "basin-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestHydroCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range hydroCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"download", "migrate", "load", "status"} {
		assert.True(t, names[name], "expected hydro subcommand %q not found", name)
	}
}

func TestStatsCommand_Flags(t *testing.T) {
	for _, name := range []string{"lat", "lon", "level", "start", "end", "threshold", "ids", "out", "save"} {
		require.NotNil(t, statsCmd.Flags().Lookup(name), "stats command should have --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("1040029810, 1040029800")
	require.NoError(t, err)
	assert.Equal(t, []int64{1040029810, 1040029800}, ids)

	ids, err = parseIDs(" ")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDs("12,x")
	assert.Error(t, err)
}

func TestParseBBox(t *testing.T) {
	b, err := parseBBox("-75, -5, -70, 0")
	require.NoError(t, err)
	assert.Equal(t, gfc.Bounds{West: -75, South: -5, East: -70, North: 0}, b)

	_, err = parseBBox("1,2,3")
	assert.Error(t, err)
	_, err = parseBBox("1,2,1,3")
	assert.Error(t, err)
	_, err = parseBBox("a,2,3,4")
	assert.Error(t, err)
}

func TestFormatUpstream(t *testing.T) {
	var buf bytes.Buffer
	up := &hydro.Upstream{Level: 8, IDs: []int64{100, 101}, Steps: 2, Truncated: true}
	cs := []hydro.Catchment{{ID: 100, SubArea: 1234.5}, {ID: 101, NextDown: 100}}
	formatUpstream(&buf, up, cs, view.NewLabels("en"))

	out := buf.String()
	assert.Contains(t, out, "HYBAS_ID")
	assert.Contains(t, out, "1,234.5")
	assert.Contains(t, out, "Upstream catchments: 2 (level 8, 2 steps, truncated)")
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := &zonal.Table{Rows: []zonal.Row{
		{Basin: "100", Variable: 40, Group: "Stable forest", Area: 1500},
		{Basin: "100", Variable: 15, Group: "Forest loss", Year: 2015, Area: 20.25},
	}}
	formatTable(&buf, tbl, gfc.DefaultLegend(), view.NewLabels("en"))

	out := buf.String()
	assert.Contains(t, out, "AREA (HA)")
	assert.Contains(t, out, "2015")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "1,520.25")
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	runs := []store.Run{{
		ID:        "0123456789abcdef",
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Lat:       4.25,
		Lon:       -73.5,
		Level:     8,
		Params:    gfc.Params{Threshold: 80, StartYear: 2010, EndYear: 2020},
		IDs:       []int64{1, 2, 3},
		Area:      12345.678,
	}}
	formatRunsList(&buf, runs, view.NewLabels("en"))

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "4.25,-73.5")
	assert.Contains(t, out, "2010-2020")
	assert.Contains(t, out, "12,345.68")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "abcdefgh", truncateID("abcdefghij"))
}

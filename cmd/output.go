package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/store"
	"github.com/sells-group/basin-cli/internal/view"
	"github.com/sells-group/basin-cli/internal/zonal"
)

// cliLabels picks the output language from LANG (e.g. fr_FR.UTF-8).
func cliLabels() *view.Labels {
	lang, _, _ := strings.Cut(os.Getenv("LANG"), ".")
	return view.NewLabels(strings.ReplaceAll(lang, "_", "-"))
}

// parseIDs parses a comma separated list of HYBAS ids.
func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, f := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, eris.Errorf("invalid hybas id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseBBox parses "west,south,east,north".
func parseBBox(raw string) (gfc.Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return gfc.Bounds{}, eris.Errorf("bbox %q must be west,south,east,north", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return gfc.Bounds{}, eris.Errorf("bbox %q: invalid number %q", raw, p)
		}
		v[i] = f
	}
	b := gfc.Bounds{West: v[0], South: v[1], East: v[2], North: v[3]}
	if b.Empty() {
		return gfc.Bounds{}, eris.Errorf("bbox %q is empty", raw)
	}
	return b, nil
}

// formatUpstream writes the resolved catchments.
func formatUpstream(out io.Writer, up *hydro.Upstream, cs []hydro.Catchment, l *view.Labels) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "HYBAS_ID\tNEXT_DOWN\tSUB_AREA_KM2\tUP_AREA_KM2")
	_, _ = fmt.Fprintln(w, "--------\t---------\t------------\t-----------")
	for _, c := range cs {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", c.ID, c.NextDown, l.Number(c.SubArea), l.Number(c.UpArea))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%s: %d (level %d, %d steps", l.Get(view.LabelUpstream), len(up.IDs), up.Level, up.Steps)
	if up.Truncated {
		_, _ = fmt.Fprint(out, ", truncated")
	}
	_, _ = fmt.Fprintln(out, ")")
}

// formatTable writes the per-catchment class areas followed by class totals.
func formatTable(out io.Writer, t *zonal.Table, legend *gfc.Legend, l *view.Labels) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "BASIN\tGROUP\tYEAR\t%s\n", strings.ToUpper(l.Get(view.LabelArea)))
	_, _ = fmt.Fprintln(w, "-----\t-----\t----\t---------")
	for _, r := range t.Rows {
		year := ""
		if r.Year != 0 {
			year = strconv.Itoa(r.Year)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Basin, r.Group, year, l.Number(r.Area))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, g := range t.ByGroup(legend) {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", g.Group, l.Number(g.Area))
	}
	_, _ = fmt.Fprintf(w, "Total\t%s\n", l.Number(t.Total()))
	_ = w.Flush()
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run, l *view.Labels) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tLEVEL\tPOINT\tYEARS\tTHRES\tCATCHMENTS\tAREA_HA")
	_, _ = fmt.Fprintln(w, "--\t-------\t-----\t-----\t-----\t-----\t----------\t-------")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s,%s\t%d-%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Level,
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lon, 'f', -1, 64),
			r.Params.StartYear, r.Params.EndYear,
			r.Params.Threshold,
			len(r.IDs),
			l.Number(r.Area),
		)
	}
	_ = w.Flush()
}

// truncateID shortens a UUID for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

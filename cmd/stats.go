package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/store"
	"github.com/sells-group/basin-cli/internal/zonal"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Calculate forest change statistics for the catchments upstream of a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		lat, _ := cmd.Flags().GetString("lat")
		lon, _ := cmd.Flags().GetString("lon")
		level, _ := cmd.Flags().GetInt("level")
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		thres, _ := cmd.Flags().GetInt("threshold")
		rawIDs, _ := cmd.Flags().GetString("ids")
		out, _ := cmd.Flags().GetString("out")
		save, _ := cmd.Flags().GetBool("save")

		la, lo, err := basin.ParseCoordinates(lat, lon)
		if err != nil {
			return err
		}
		ids, err := parseIDs(rawIDs)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		m := basin.NewModel(e.Deps, defaults())
		if level != 0 {
			if err := m.SetLevel(level); err != nil {
				return err
			}
		}
		if start != 0 || end != 0 {
			p := m.Params()
			if start != 0 {
				p.StartYear = start
			}
			if end != 0 {
				p.EndYear = end
			}
			if err := m.SetYears(p.StartYear, p.EndYear); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("threshold") {
			if err := m.SetThreshold(thres); err != nil {
				return err
			}
		}
		if err := m.PlaceMarker(la, lo); err != nil {
			return err
		}
		if _, err := m.ResolveUpstream(ctx); err != nil {
			return err
		}
		if ids != nil {
			if err := m.SetMethod(basin.MethodFilter); err != nil {
				return err
			}
			m.SelectedHybas.Set(ids)
		}

		t, err := m.CalculateStatistics(ctx)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		if out != "" {
			if err := writeTableFile(out, t, m); err != nil {
				return err
			}
		}
		if save {
			if err := saveRun(cmd, m, t); err != nil {
				return err
			}
		}

		formatTable(os.Stdout, t, m.Deps().Legend, cliLabels())
		return nil
	},
}

// writeTableFile writes CSV or XLSX depending on the file extension.
func writeTableFile(path string, t *zonal.Table, m *basin.Model) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if err := zonal.WriteCSV(&buf, t); err != nil {
			return err
		}
	case ".xlsx":
		if err := zonal.WriteXLSX(&buf, t, t.ByGroup(m.Deps().Legend)); err != nil {
			return err
		}
	default:
		return eris.Errorf("stats: unsupported output %q (use .csv or .xlsx)", path)
	}
	return eris.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "stats: write %s", path)
}

func saveRun(cmd *cobra.Command, m *basin.Model, t *zonal.Table) error {
	ctx := cmd.Context()
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	ids, _ := m.TargetIDs()
	run := &store.Run{
		Lat:    m.Lat.Get(),
		Lon:    m.Lon.Get(),
		Level:  m.Level.Get(),
		Method: m.Method.Get(),
		Params: m.Params(),
		IDs:    ids,
		Rows:   t.Rows,
		Area:   t.Total(),
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return eris.Wrap(err, "stats: save run")
	}
	zap.L().Info("run saved", zap.String("run_id", run.ID))
	return nil
}

func init() {
	statsCmd.Flags().String("lat", "", "latitude of the point")
	statsCmd.Flags().String("lon", "", "longitude of the point")
	statsCmd.Flags().Int("level", 0, "HydroBASINS level 1-12 (default from config)")
	statsCmd.Flags().Int("start", 0, "first loss year (default from config)")
	statsCmd.Flags().Int("end", 0, "last loss year (default from config)")
	statsCmd.Flags().Int("threshold", 0, "tree cover threshold in percent (default from config)")
	statsCmd.Flags().String("ids", "", "comma separated HYBAS ids to restrict to (filter mode)")
	statsCmd.Flags().String("out", "", "write the table to a .csv or .xlsx file")
	statsCmd.Flags().Bool("save", false, "save the run to the run store")
	_ = statsCmd.MarkFlagRequired("lat")
	_ = statsCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(statsCmd)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/hydro"
)

var hydroCmd = &cobra.Command{
	Use:   "hydro",
	Short: "Manage the HydroBASINS catchment data",
}

var hydroDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and extract HydroBASINS shapefiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		regions, _ := cmd.Flags().GetStringSlice("region")
		levels, _ := cmd.Flags().GetIntSlice("level")
		if len(regions) == 0 {
			regions = hydro.Regions
		}
		f := newFetcher()
		for _, region := range regions {
			a, err := hydro.Download(cmd.Context(), f, cfg.Hydro.DownloadURL, region, cfg.Hydro.Dir, levels)
			if err != nil {
				return eris.Wrapf(err, "hydro download %s", region)
			}
			zap.L().Info("hydrobasins region ready",
				zap.String("region", a.Region), zap.Int("shapefiles", len(a.Shapefiles)), zap.Ints("levels", a.Levels))
		}
		return nil
	},
}

var hydroMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the hydro schema in Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pool, err := openHydroPool(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		return hydro.Migrate(cmd.Context(), pool)
	},
}

var hydroLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load HydroBASINS shapefiles for one or more levels into Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		levels, _ := cmd.Flags().GetIntSlice("level")
		replace, _ := cmd.Flags().GetBool("replace")
		if len(levels) == 0 {
			levels = []int{cfg.Hydro.DefaultLevel}
		}

		pool, err := openHydroPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := hydro.Migrate(ctx, pool); err != nil {
			return err
		}
		st := hydro.NewPostgresStore(pool)

		for _, level := range levels {
			if err := hydro.ValidateLevel(level); err != nil {
				return err
			}
			paths, err := filepath.Glob(filepath.Join(cfg.Hydro.Dir, hydro.ShapefilePattern(level)))
			if err != nil {
				return eris.Wrap(err, "hydro load: glob")
			}
			if len(paths) == 0 {
				return eris.Errorf("hydro load: no level %d shapefiles in %s", level, cfg.Hydro.Dir)
			}
			sort.Strings(paths)

			if replace {
				if _, err := st.DeleteLevel(ctx, level); err != nil {
					return err
				}
			}
			var total int64
			for _, p := range paths {
				cs, err := hydro.ReadShapefile(p, level)
				if err != nil {
					return err
				}
				load := st.Load
				if replace {
					load = st.Copy
				}
				n, err := load(ctx, cs)
				if err != nil {
					return eris.Wrapf(err, "hydro load %s", filepath.Base(p))
				}
				total += n
			}
			zap.L().Info("hydrobasins level loaded",
				zap.Int("level", level), zap.Int("files", len(paths)), zap.Int64("rows", total))
		}
		return nil
	},
}

var hydroStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catchment counts per level in Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pool, err := openHydroPool(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		counts, err := hydro.NewPostgresStore(pool).LevelCounts(cmd.Context())
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Fprintln(os.Stderr, "No catchments loaded.")
			return nil
		}
		l := cliLabels()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "LEVEL\tCATCHMENTS")
		_, _ = fmt.Fprintln(w, "-----\t----------")
		for _, c := range counts {
			_, _ = fmt.Fprintf(w, "%d\t%s\n", c.Level, l.Number(float64(c.Count)))
		}
		return w.Flush()
	},
}

func init() {
	hydroDownloadCmd.Flags().StringSlice("region", nil, "regions to download (af, ar, as, au, eu, gr, na, sa, si; default all)")
	hydroDownloadCmd.Flags().IntSlice("level", nil, "levels to extract (default all)")
	hydroLoadCmd.Flags().IntSlice("level", nil, "levels to load (default from config)")
	hydroLoadCmd.Flags().Bool("replace", false, "delete the level before loading")

	hydroCmd.AddCommand(hydroDownloadCmd)
	hydroCmd.AddCommand(hydroMigrateCmd)
	hydroCmd.AddCommand(hydroLoadCmd)
	hydroCmd.AddCommand(hydroStatusCmd)
	rootCmd.AddCommand(hydroCmd)
}

package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/hydro"
)

var upstreamCmd = &cobra.Command{
	Use:   "upstream",
	Short: "List the catchments upstream of a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		lat, _ := cmd.Flags().GetString("lat")
		lon, _ := cmd.Flags().GetString("lon")
		level, _ := cmd.Flags().GetInt("level")
		steps, _ := cmd.Flags().GetInt("steps")
		geojsonOut, _ := cmd.Flags().GetString("geojson")

		la, lo, err := basin.ParseCoordinates(lat, lon)
		if err != nil {
			return err
		}
		if err := basin.ValidateCoordinates(la, lo); err != nil {
			return err
		}
		if level == 0 {
			level = cfg.Hydro.DefaultLevel
		}
		if steps == 0 {
			steps = cfg.Hydro.MaxSteps
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		up, err := e.Deps.Resolver.ResolveSteps(ctx, level, lo, la, steps)
		if err != nil {
			return eris.Wrap(err, "upstream")
		}
		cs, err := e.Source.Catchments(ctx, level, up.IDs)
		if err != nil {
			return eris.Wrap(err, "upstream: load catchments")
		}

		if geojsonOut != "" {
			data, err := hydro.MarshalGeoJSON(cs)
			if err != nil {
				return err
			}
			if err := os.WriteFile(geojsonOut, data, 0o644); err != nil {
				return eris.Wrapf(err, "upstream: write %s", geojsonOut)
			}
		}

		formatUpstream(os.Stdout, up, cs, cliLabels())
		return nil
	},
}

func init() {
	upstreamCmd.Flags().String("lat", "", "latitude of the point")
	upstreamCmd.Flags().String("lon", "", "longitude of the point")
	upstreamCmd.Flags().Int("level", 0, "HydroBASINS level 1-12 (default from config)")
	upstreamCmd.Flags().Int("steps", 0, "maximum upstream expansion steps (default from config)")
	upstreamCmd.Flags().String("geojson", "", "write the catchments as GeoJSON to this file")
	_ = upstreamCmd.MarkFlagRequired("lat")
	_ = upstreamCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(upstreamCmd)
}

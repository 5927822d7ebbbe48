package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/gfc"
)

var forestCmd = &cobra.Command{
	Use:   "forest",
	Short: "Manage the Global Forest Change raster tiles",
}

var forestFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the GFC tiles covering a bounding box",
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, _ := cmd.Flags().GetString("bbox")
		baseURL, _ := cmd.Flags().GetString("base-url")
		b, err := parseBBox(raw)
		if err != nil {
			return err
		}
		n, err := gfc.FetchTiles(cmd.Context(), newFetcher(), baseURL, cfg.Forest.Version, cfg.Forest.TileDir, b)
		if err != nil {
			return eris.Wrap(err, "forest fetch")
		}
		zap.L().Info("gfc tiles fetched", zap.Int("downloaded", n), zap.Int("tiles", len(gfc.TilesFor(b))))
		return nil
	},
}

var forestTilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "List the GFC tile files a bounding box needs and whether they exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, _ := cmd.Flags().GetString("bbox")
		b, err := parseBBox(raw)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TILE\tBAND\tPRESENT")
		_, _ = fmt.Fprintln(w, "----\t----\t-------")
		for _, t := range gfc.TilesFor(b) {
			for _, band := range gfc.Bands {
				name := gfc.TileName(cfg.Forest.Version, band, t)
				_, statErr := os.Stat(filepath.Join(cfg.Forest.TileDir, name))
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\n", t.Suffix(), band, statErr == nil)
			}
		}
		return w.Flush()
	},
}

func init() {
	forestFetchCmd.Flags().String("bbox", "", "west,south,east,north in degrees")
	forestFetchCmd.Flags().String("base-url", gfc.DefaultBaseURL, "GFC download base URL")
	_ = forestFetchCmd.MarkFlagRequired("bbox")
	forestTilesCmd.Flags().String("bbox", "", "west,south,east,north in degrees")
	_ = forestTilesCmd.MarkFlagRequired("bbox")

	forestCmd.AddCommand(forestFetchCmd)
	forestCmd.AddCommand(forestTilesCmd)
	rootCmd.AddCommand(forestCmd)
}

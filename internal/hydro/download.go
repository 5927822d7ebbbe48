package hydro

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/fetcher"
)

// Regions lists the HydroBASINS continental archives.
var Regions = []string{"af", "ar", "as", "au", "eu", "gr", "na", "sa", "si"}

// ArchiveName returns the standard (lakes-included) archive name for a region.
func ArchiveName(region string) string {
	return fmt.Sprintf("hybas_%s_lev01-12_v1c.zip", region)
}

// Download fetches the HydroBASINS archive for region from baseURL and
// extracts the catchment shapefiles of the requested levels (all when empty)
// into destDir. An archive already on disk is reused.
func Download(ctx context.Context, f fetcher.Fetcher, baseURL, region, destDir string, levels []int) (*Archive, error) {
	region = strings.ToLower(region)
	if !slices.Contains(Regions, region) {
		return nil, eris.Errorf("hydro: unknown region %q", region)
	}
	for _, l := range levels {
		if err := ValidateLevel(l); err != nil {
			return nil, err
		}
	}

	name := ArchiveName(region)
	url := strings.TrimRight(baseURL, "/") + "/" + name
	log := zap.L().With(
		zap.String("component", "hydro.download"),
		zap.String("url", url),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "hydro: create dest dir")
	}

	zipPath := filepath.Join(destDir, name)
	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("archive already exists, skipping download", zap.String("path", zipPath))
	} else {
		log.Info("downloading HydroBASINS archive")
		if _, err := f.DownloadToFile(ctx, url, zipPath); err != nil {
			return nil, eris.Wrap(err, "hydro: download archive")
		}
	}

	a, err := extractArchive(zipPath, destDir, levels)
	if err != nil {
		return nil, eris.Wrapf(err, "hydro: extract %s", name)
	}
	if len(a.Shapefiles) == 0 {
		return nil, eris.Errorf("hydro: no catchment shapefiles in %s", name)
	}
	a.Region = region

	log.Info("archive extracted", zap.Int("shapefiles", len(a.Shapefiles)), zap.Ints("levels", a.Levels))
	return a, nil
}

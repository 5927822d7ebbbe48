package gfc

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/basin-cli/internal/fetcher"
)

// DefaultBaseURL is the public bucket holding the GFC tiles.
const DefaultBaseURL = "https://storage.googleapis.com/earthenginepartners-hansen"

// TileURL returns the download URL of a tile band.
func TileURL(baseURL, version, band string, t TileID) string {
	return strings.TrimRight(baseURL, "/") + "/" + version + "/" + TileName(version, band, t)
}

// FetchTiles downloads every band of every tile covering b into dir,
// skipping files already present. Returns the number of files downloaded.
func FetchTiles(ctx context.Context, f fetcher.Fetcher, baseURL, version, dir string, b Bounds) (int, error) {
	tiles := TilesFor(b)
	if len(tiles) == 0 {
		return 0, eris.New("gfc: empty bounds")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrap(err, "gfc: create tile dir")
	}

	log := zap.L().With(zap.String("component", "gfc.fetch"), zap.String("version", version))

	type job struct{ url, path string }
	var jobs []job
	for _, t := range tiles {
		for _, band := range Bands {
			path := filepath.Join(dir, TileName(version, band, t))
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				continue
			}
			jobs = append(jobs, job{url: TileURL(baseURL, version, band, t), path: path})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, j := range jobs {
		g.Go(func() error {
			log.Info("downloading tile", zap.String("url", j.url))
			if _, err := f.DownloadToFile(gctx, j.url, j.path); err != nil {
				return eris.Wrapf(err, "gfc: download %s", filepath.Base(j.path))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(jobs), nil
}

package hydro

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog lazily loads one Index per level from a directory of HydroBASINS
// shapefiles (hybas_<region>_lev<NN>_v1c.shp). All regions present for a
// level are merged into the same index.
type Catalog struct {
	dir         string
	concurrency int

	mu      sync.Mutex
	indexes map[int]*Index
}

// NewCatalog creates a Catalog rooted at dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{
		dir:         dir,
		concurrency: 4,
		indexes:     make(map[int]*Index),
	}
}

// ShapefilePattern returns the glob matching every region file for a level.
func ShapefilePattern(level int) string {
	return fmt.Sprintf("hybas_*_lev%02d_v1c.shp", level)
}

// Index returns the index for level, reading the shapefiles on first use.
func (c *Catalog) Index(ctx context.Context, level int) (*Index, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.indexes[level]; ok {
		return idx, nil
	}

	paths, err := filepath.Glob(filepath.Join(c.dir, ShapefilePattern(level)))
	if err != nil {
		return nil, eris.Wrap(err, "hydro: glob shapefiles")
	}
	if len(paths) == 0 {
		return nil, eris.Errorf("hydro: no level %d shapefiles in %s", level, c.dir)
	}
	sort.Strings(paths)

	log := zap.L().With(
		zap.String("component", "hydro.catalog"),
		zap.Int("level", level),
	)

	parts := make([][]Catchment, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cs, err := ReadShapefile(p, level)
			if err != nil {
				return err
			}
			parts[i] = cs
			log.Debug("loaded shapefile", zap.String("path", p), zap.Int("catchments", len(cs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "hydro: load level %d", level)
	}

	var all []Catchment
	for _, cs := range parts {
		all = append(all, cs...)
	}
	idx := NewIndex(level, all)
	c.indexes[level] = idx

	log.Info("catchment index ready", zap.Int("files", len(paths)), zap.Int("catchments", idx.Len()))
	return idx, nil
}

// Containing implements Source.
func (c *Catalog) Containing(ctx context.Context, level int, lon, lat float64) ([]Catchment, error) {
	idx, err := c.Index(ctx, level)
	if err != nil {
		return nil, err
	}
	return idx.Containing(ctx, level, lon, lat)
}

// Upstream implements Source.
func (c *Catalog) Upstream(ctx context.Context, level int, ids []int64) ([]Catchment, error) {
	idx, err := c.Index(ctx, level)
	if err != nil {
		return nil, err
	}
	return idx.Upstream(ctx, level, ids)
}

// Catchments implements Source.
func (c *Catalog) Catchments(ctx context.Context, level int, ids []int64) ([]Catchment, error) {
	idx, err := c.Index(ctx, level)
	if err != nil {
		return nil, err
	}
	return idx.Catchments(ctx, level, ids)
}

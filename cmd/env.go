package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/db"
	"github.com/sells-group/basin-cli/internal/fetcher"
	"github.com/sells-group/basin-cli/internal/gfc"
	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/store"
	"github.com/sells-group/basin-cli/internal/zonal"
)

// env holds the collaborators shared by the analysis commands.
type env struct {
	Pool   *pgxpool.Pool // nil for the shapefile source
	Source hydro.Source
	Deps   basin.Deps
}

// Close releases the database pool.
func (e *env) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}

func openHydroPool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Hydro.DatabaseURL == "" {
		return nil, eris.New("hydro.database_url is required (BASIN_HYDRO_DATABASE_URL)")
	}
	return db.Open(ctx, cfg.Hydro.DatabaseURL, nil)
}

// initEnv builds the hydro source, raster source and aggregation settings
// from the loaded config.
func initEnv(ctx context.Context) (*env, error) {
	e := &env{}
	switch cfg.Hydro.Source {
	case "postgres":
		pool, err := openHydroPool(ctx)
		if err != nil {
			return nil, err
		}
		e.Pool = pool
		e.Source = hydro.NewPostgresStore(pool)
	default:
		e.Source = hydro.NewCatalog(cfg.Hydro.Dir)
	}

	tiles, err := gfc.NewTileSource(cfg.Forest.TileDir, cfg.Forest.Version, cfg.Forest.CacheTiles)
	if err != nil {
		e.Close()
		return nil, err
	}
	legend, err := gfc.LoadLegend(cfg.Forest.LegendFile)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.Deps = basin.Deps{
		Resolver:   hydro.NewResolver(e.Source, cfg.Hydro.MaxSteps),
		Rasters:    tiles,
		Legend:     legend,
		Aggregator: zonal.NewAggregator(cfg.Stats.Workers),
		Years:      gfc.YearRange{Min: cfg.Forest.MinYear, Max: cfg.Forest.MaxYear},
		Stride:     cfg.Forest.Stride,
		Table: zonal.TableOptions{
			PaletteSize: cfg.Stats.PaletteSize,
			ColorSeed:   cfg.Stats.ColorSeed,
		},
	}
	zap.L().Debug("environment ready",
		zap.String("hydro_source", cfg.Hydro.Source),
		zap.String("tile_dir", cfg.Forest.TileDir),
		zap.String("gfc_version", cfg.Forest.Version),
	)
	return e, nil
}

// defaults returns the initial model parameters from config.
func defaults() basin.Defaults {
	return basin.Defaults{
		StartYear: cfg.Forest.StartYear,
		EndYear:   cfg.Forest.EndYear,
		Threshold: cfg.Forest.Threshold,
		Level:     cfg.Hydro.DefaultLevel,
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		url := cfg.Store.DatabaseURL
		if url == "" {
			url = cfg.Hydro.DatabaseURL
		}
		return store.NewPostgres(ctx, url, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 30 * time.Minute})
}

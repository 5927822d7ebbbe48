package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Hydro  HydroConfig  `yaml:"hydro" mapstructure:"hydro"`
	Forest ForestConfig `yaml:"forest" mapstructure:"forest"`
	Stats  StatsConfig  `yaml:"stats" mapstructure:"stats"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the statistics run store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// HydroConfig configures where catchment polygons come from.
type HydroConfig struct {
	Source       string `yaml:"source" mapstructure:"source"` // "shapefile" or "postgres"
	Dir          string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	DefaultLevel int    `yaml:"default_level" mapstructure:"default_level"`
	MaxSteps     int    `yaml:"max_steps" mapstructure:"max_steps"`
	DownloadURL  string `yaml:"download_url" mapstructure:"download_url"`
}

// ForestConfig configures the Global Forest Change raster inputs.
type ForestConfig struct {
	TileDir    string `yaml:"tile_dir" mapstructure:"tile_dir"`
	Version    string `yaml:"version" mapstructure:"version"`
	MinYear    int    `yaml:"min_year" mapstructure:"min_year"`
	MaxYear    int    `yaml:"max_year" mapstructure:"max_year"`
	StartYear  int    `yaml:"start_year" mapstructure:"start_year"`
	EndYear    int    `yaml:"end_year" mapstructure:"end_year"`
	Threshold  int    `yaml:"threshold" mapstructure:"threshold"`
	Stride     int    `yaml:"stride" mapstructure:"stride"`
	CacheTiles int    `yaml:"cache_tiles" mapstructure:"cache_tiles"`
	LegendFile string `yaml:"legend_file" mapstructure:"legend_file"`
}

// StatsConfig configures zonal statistics.
type StatsConfig struct {
	Workers     int   `yaml:"workers" mapstructure:"workers"`
	PaletteSize int   `yaml:"palette_size" mapstructure:"palette_size"`
	ColorSeed   int64 `yaml:"color_seed" mapstructure:"color_seed"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes" mapstructure:"session_ttl_minutes"`
	CalcRPS           float64  `yaml:"calc_rps" mapstructure:"calc_rps"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	TileCacheEntries  int      `yaml:"tile_cache_entries" mapstructure:"tile_cache_entries"`
	TileCacheTTLMins  int      `yaml:"tile_cache_ttl_minutes" mapstructure:"tile_cache_ttl_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BASIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "basin.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("hydro.source", "shapefile")
	v.SetDefault("hydro.dir", "data/hydrobasins")
	v.SetDefault("hydro.database_url", "")
	v.SetDefault("hydro.default_level", 8)
	v.SetDefault("hydro.max_steps", 100)
	v.SetDefault("hydro.download_url", "https://data.hydrosheds.org/file/hydrobasins/standard")
	v.SetDefault("forest.tile_dir", "data/gfc")
	v.SetDefault("forest.version", "GFC-2022-v1.10")
	v.SetDefault("forest.min_year", 2001)
	v.SetDefault("forest.max_year", 2022)
	v.SetDefault("forest.start_year", 2010)
	v.SetDefault("forest.end_year", 2020)
	v.SetDefault("forest.threshold", 80)
	v.SetDefault("forest.stride", 1)
	v.SetDefault("forest.cache_tiles", 6)
	v.SetDefault("forest.legend_file", "")
	v.SetDefault("stats.workers", 4)
	v.SetDefault("stats.palette_size", 20)
	v.SetDefault("stats.color_seed", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_ttl_minutes", 60)
	v.SetDefault("server.calc_rps", 2.0)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.tile_cache_entries", 5000)
	v.SetDefault("server.tile_cache_ttl_minutes", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for values the commands cannot work with.
func (c *Config) Validate() error {
	switch c.Hydro.Source {
	case "shapefile":
		if c.Hydro.Dir == "" {
			return eris.New("config: hydro.dir is required for the shapefile source")
		}
	case "postgres":
		if c.Hydro.DatabaseURL == "" {
			return eris.New("config: hydro.database_url is required for the postgres source")
		}
	default:
		return eris.Errorf("config: unknown hydro.source %q", c.Hydro.Source)
	}

	if c.Hydro.DefaultLevel < 1 || c.Hydro.DefaultLevel > 12 {
		return eris.Errorf("config: hydro.default_level %d out of range 1-12", c.Hydro.DefaultLevel)
	}
	if c.Hydro.MaxSteps < 1 {
		return eris.New("config: hydro.max_steps must be positive")
	}
	if c.Forest.MinYear > c.Forest.MaxYear {
		return eris.Errorf("config: forest.min_year %d after forest.max_year %d", c.Forest.MinYear, c.Forest.MaxYear)
	}
	if c.Forest.Threshold < 0 || c.Forest.Threshold > 100 {
		return eris.Errorf("config: forest.threshold %d out of range 0-100", c.Forest.Threshold)
	}
	if c.Forest.Stride < 1 {
		return eris.New("config: forest.stride must be at least 1")
	}
	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" && c.Hydro.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres store")
		}
	default:
		return eris.Errorf("config: unsupported store.driver %q", c.Store.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "basin.db", cfg.Store.Path)
	assert.Equal(t, "shapefile", cfg.Hydro.Source)
	assert.Equal(t, 8, cfg.Hydro.DefaultLevel)
	assert.Equal(t, 100, cfg.Hydro.MaxSteps)
	assert.Equal(t, "GFC-2022-v1.10", cfg.Forest.Version)
	assert.Equal(t, 2001, cfg.Forest.MinYear)
	assert.Equal(t, 2022, cfg.Forest.MaxYear)
	assert.Equal(t, 2010, cfg.Forest.StartYear)
	assert.Equal(t, 2020, cfg.Forest.EndYear)
	assert.Equal(t, 80, cfg.Forest.Threshold)
	assert.Equal(t, 1, cfg.Forest.Stride)
	assert.Equal(t, 4, cfg.Stats.Workers)
	assert.Equal(t, 20, cfg.Stats.PaletteSize)
	assert.Equal(t, int64(0), cfg.Stats.ColorSeed)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 2.0, cfg.Server.CalcRPS, 0.001)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
hydro:
  source: postgres
  database_url: postgres://localhost/hydro
  default_level: 6
forest:
  threshold: 30
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Hydro.Source)
	assert.Equal(t, "postgres://localhost/hydro", cfg.Hydro.DatabaseURL)
	assert.Equal(t, 6, cfg.Hydro.DefaultLevel)
	assert.Equal(t, 30, cfg.Forest.Threshold)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Hydro.MaxSteps)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
hydro:
  dir: /srv/hydrobasins
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BASIN_HYDRO_DIR", "/mnt/hybas")
	t.Setenv("BASIN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "/mnt/hybas", cfg.Hydro.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BASIN_SERVER_PORT", "3000")
	t.Setenv("BASIN_HYDRO_DATABASE_URL", "postgres://env/hydro")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://env/hydro", cfg.Hydro.DatabaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("hydro: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Hydro.Source = "shapefile"
	cfg.Hydro.Dir = "data/hydrobasins"
	cfg.Hydro.DefaultLevel = 8
	cfg.Hydro.MaxSteps = 100
	cfg.Forest.MinYear = 2001
	cfg.Forest.MaxYear = 2022
	cfg.Forest.Threshold = 80
	cfg.Forest.Stride = 1
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Hydro.Source = "postgres"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hydro.database_url")

	cfg.Hydro.DatabaseURL = "postgres://localhost/hydro"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ShapefileNeedsDir(t *testing.T) {
	cfg := validDefaults()
	cfg.Hydro.Dir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnknownSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Hydro.Source = "earthengine"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown hydro.source")
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level low", func(c *Config) { c.Hydro.DefaultLevel = 0 }, "default_level"},
		{"level high", func(c *Config) { c.Hydro.DefaultLevel = 13 }, "default_level"},
		{"steps", func(c *Config) { c.Hydro.MaxSteps = 0 }, "max_steps"},
		{"years", func(c *Config) { c.Forest.MinYear = 2030 }, "min_year"},
		{"threshold", func(c *Config) { c.Forest.Threshold = 101 }, "threshold"},
		{"stride", func(c *Config) { c.Forest.Stride = 0 }, "stride"},
		{"driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"store url", func(c *Config) { c.Store.Driver = "postgres" }, "store.database_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

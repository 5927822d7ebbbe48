package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig_Defaults(t *testing.T) {
	cfg, err := poolConfig("postgres://basin@localhost:5432/hydro", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
	assert.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnIdleTime)
}

func TestPoolConfig_Overrides(t *testing.T) {
	cfg, err := poolConfig("postgres://basin@localhost:5432/hydro", &PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
}

func TestOpen_InvalidConnString(t *testing.T) {
	_, err := Open(context.Background(), "postgres://basin@localhost:notaport/hydro", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: parse config")
}

package hydro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinZoom(t *testing.T) {
	assert.Equal(t, 0, MinZoom(2))
	assert.Equal(t, 3, MinZoom(6))
	assert.Equal(t, 5, MinZoom(8))
	assert.Equal(t, 5, MinZoom(12))
}

func TestGenerateTile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tileData := []byte("mock-mvt-bytes")
	mock.ExpectQuery(`SELECT ST_AsMVT\(q, 'catchments', 4096, 'geom'\) FROM`).
		WithArgs(8, 9, 280, 160).
		WillReturnRows(pgxmock.NewRows([]string{"st_asmvt"}).AddRow(tileData))

	tile, err := GenerateTile(context.Background(), mock, 8, 9, 280, 160)
	require.NoError(t, err)
	assert.Equal(t, tileData, tile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateTile_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT ST_AsMVT").WillReturnError(errors.New("timeout"))
	_, err = GenerateTile(context.Background(), mock, 8, 9, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hydro: generate tile")
}

func TestTileCache_HitMissStats(t *testing.T) {
	c := NewTileCache(10, time.Minute)
	_, ok := c.Get(8, 5, 1, 1)
	assert.False(t, ok)

	c.Put(8, 5, 1, 1, []byte("a"))
	data, ok := c.Get(8, 5, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), data)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 10, stats.MaxEntries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestTileCache_Evicts(t *testing.T) {
	c := NewTileCache(2, time.Minute)
	c.Put(8, 5, 1, 1, []byte("a"))
	c.Put(8, 5, 1, 2, []byte("b"))
	c.Put(8, 5, 1, 3, []byte("c"))

	_, ok := c.Get(8, 5, 1, 1)
	assert.False(t, ok)
	data, ok := c.Get(8, 5, 1, 3)
	assert.True(t, ok)
	assert.Equal(t, []byte("c"), data)
}

func TestTileCache_Expires(t *testing.T) {
	c := NewTileCache(2, 10*time.Millisecond)
	c.Put(8, 5, 1, 1, []byte("a"))
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(8, 5, 1, 1)
	assert.False(t, ok)
}

func TestTileCache_InvalidateLevel(t *testing.T) {
	c := NewTileCache(10, time.Minute)
	c.Put(8, 5, 1, 1, []byte("a"))
	c.Put(7, 5, 1, 1, []byte("b"))
	c.Invalidate(8)

	_, ok := c.Get(8, 5, 1, 1)
	assert.False(t, ok)
	data, ok := c.Get(7, 5, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, []byte("b"), data)
}

func TestTileCache_EmptyTileIsAHit(t *testing.T) {
	c := NewTileCache(10, time.Minute)
	c.Put(8, 5, 1, 1, nil)

	data, ok := c.Get(8, 5, 1, 1)
	assert.True(t, ok)
	assert.NotNil(t, data)
	assert.Empty(t, data)
	assert.Equal(t, int64(1), c.Stats().Hits)
	assert.Zero(t, c.Stats().Misses)
}

func TestTileHandler_BadRequests(t *testing.T) {
	h := NewTileHandler(nil, nil)
	tests := []struct {
		path string
		code int
	}{
		{"/tiles/catchments/8/5/1", http.StatusBadRequest},
		{"/tiles/catchments/8/5/1/1.png", http.StatusBadRequest},
		{"/tiles/catchments/8/x/1/1.pbf", http.StatusBadRequest},
		{"/tiles/catchments/13/5/1/1.pbf", http.StatusNotFound},
		{"/tiles/catchments/8/2/1/1.pbf", http.StatusNoContent},
		{"/tiles/catchments/8/20/1/1.pbf", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestTileHandler_GeneratesAndCaches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT ST_AsMVT").
		WithArgs(8, 6, 35, 20).
		WillReturnRows(pgxmock.NewRows([]string{"st_asmvt"}).AddRow([]byte("tile")))

	cache := NewTileCache(10, time.Minute)
	h := NewTileHandler(mock, cache)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiles/catchments/8/6/35/20.pbf", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))
	assert.Equal(t, "application/vnd.mapbox-vector-tile", w.Header().Get("Content-Type"))
	assert.Equal(t, "tile", w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiles/catchments/8/6/35/20.pbf", nil))
	assert.Equal(t, "hit", w.Header().Get("X-Cache"))
	assert.NoError(t, mock.ExpectationsWereMet())

	w = httptest.NewRecorder()
	h.StatsHandler(w, httptest.NewRequest(http.MethodGet, "/tiles/stats", nil))
	assert.Contains(t, w.Body.String(), "entries=1")
}

func TestTileHandler_CachesEmptyTiles(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// An envelope with no catchments renders as NULL.
	mock.ExpectQuery("SELECT ST_AsMVT").
		WithArgs(8, 6, 0, 0).
		WillReturnRows(pgxmock.NewRows([]string{"st_asmvt"}).AddRow(nil))

	cache := NewTileCache(10, time.Minute)
	h := NewTileHandler(mock, cache)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiles/catchments/8/6/0/0.pbf", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))
	assert.Zero(t, w.Body.Len())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiles/catchments/8/6/0/0.pbf", nil))
	assert.Equal(t, "hit", w.Header().Get("X-Cache"))
	assert.Zero(t, w.Body.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTileHandler_GenerationError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT ST_AsMVT").WillReturnError(errors.New("boom"))
	h := NewTileHandler(mock, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiles/catchments/8/6/35/20.pbf", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	h.StatsHandler(w, httptest.NewRequest(http.MethodGet, "/tiles/stats", nil))
	assert.Equal(t, "cache disabled", w.Body.String())
}

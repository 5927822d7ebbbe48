package hydro

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/db"
)

// Zoom bounds for catchment tiles. Coarse levels are visible earlier.
const (
	tileMaxZoom = 14
	tileExtent  = 4096
	tileBuffer  = 256
)

// MinZoom returns the lowest zoom at which a level's catchments are served.
func MinZoom(level int) int {
	switch {
	case level <= 4:
		return 0
	case level <= 7:
		return 3
	default:
		return 5
	}
}

// GenerateTile renders one Mapbox Vector Tile of catchments at a level.
func GenerateTile(ctx context.Context, pool db.Pool, level, z, x, y int) ([]byte, error) {
	sql := fmt.Sprintf(`
		SELECT ST_AsMVT(q, 'catchments', %d, 'geom') FROM (
			SELECT hybas_id, next_down, pfaf_id, sub_area, up_area,
				ST_AsMVTGeom(
					ST_Transform(geom, 3857),
					ST_TileEnvelope($2, $3, $4),
					%d, %d, true
				) AS geom
			FROM hydro.catchments
			WHERE level = $1 AND geom && ST_Transform(ST_TileEnvelope($2, $3, $4), 4326)
		) q`, tileExtent, tileExtent, tileBuffer)

	var tile []byte
	if err := pool.QueryRow(ctx, sql, level, z, x, y).Scan(&tile); err != nil {
		return nil, eris.Wrap(err, "hydro: generate tile")
	}
	return tile, nil
}

// TileCache is an LRU cache of rendered tiles with TTL expiration.
type TileCache struct {
	lru    *expirable.LRU[string, []byte]
	size   int
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewTileCache creates a TileCache holding at most maxEntries tiles for ttl.
func NewTileCache(maxEntries int, ttl time.Duration) *TileCache {
	return &TileCache{
		lru:  expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
		size: maxEntries,
	}
}

func tileKey(level, z, x, y int) string {
	return fmt.Sprintf("%d/%d/%d/%d", level, z, x, y)
}

// Get returns a cached tile. ok is false on a miss or expiration; a cached
// empty tile is a hit with zero-length data.
func (c *TileCache) Get(level, z, x, y int) (data []byte, ok bool) {
	data, ok = c.lru.Get(tileKey(level, z, x, y))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

// Put stores a tile. A nil tile (no catchments in the envelope) is stored
// as an empty one.
func (c *TileCache) Put(level, z, x, y int, data []byte) {
	if data == nil {
		data = []byte{}
	}
	c.lru.Add(tileKey(level, z, x, y), data)
}

// Invalidate drops every cached tile of a level, e.g. after a reload.
func (c *TileCache) Invalidate(level int) {
	prefix := strconv.Itoa(level) + "/"
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

// Stats returns cache performance statistics.
func (c *TileCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Entries:    c.lru.Len(),
		MaxEntries: c.size,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

// TileHandler serves catchment vector tiles over HTTP.
type TileHandler struct {
	pool  db.Pool
	cache *TileCache
}

// NewTileHandler creates a tile handler. cache may be nil.
func NewTileHandler(pool db.Pool, cache *TileCache) *TileHandler {
	return &TileHandler{pool: pool, cache: cache}
}

// ServeHTTP handles /tiles/catchments/{level}/{z}/{x}/{y}.pbf.
func (h *TileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tiles/catchments/")
	parts := strings.Split(path, "/")
	if len(parts) != 4 || !strings.HasSuffix(parts[3], ".pbf") {
		http.Error(w, "invalid tile path", http.StatusBadRequest)
		return
	}

	coords := make([]int, 4)
	parts[3] = strings.TrimSuffix(parts[3], ".pbf")
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, "invalid tile coordinate", http.StatusBadRequest)
			return
		}
		coords[i] = n
	}
	level, z, x, y := coords[0], coords[1], coords[2], coords[3]

	if err := ValidateLevel(level); err != nil {
		http.Error(w, "unknown level", http.StatusNotFound)
		return
	}
	if z < MinZoom(level) || z > tileMaxZoom {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.cache != nil {
		if cached, ok := h.cache.Get(level, z, x, y); ok {
			w.Header().Set("Content-Type", "application/vnd.mapbox-vector-tile")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(cached)
			return
		}
	}

	tile, err := GenerateTile(r.Context(), h.pool, level, z, x, y)
	if err != nil {
		zap.L().Error("hydro: tile generation failed",
			zap.Int("level", level),
			zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
			zap.Error(err),
		)
		http.Error(w, "tile generation failed", http.StatusInternalServerError)
		return
	}

	if h.cache != nil {
		h.cache.Put(level, z, x, y, tile)
	}
	w.Header().Set("Content-Type", "application/vnd.mapbox-vector-tile")
	w.Header().Set("X-Cache", "miss")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(tile)
}

// StatsHandler writes cache statistics as plain text.
func (h *TileHandler) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	if h.cache == nil {
		_, _ = w.Write([]byte("cache disabled"))
		return
	}
	stats := h.cache.Stats()
	_, _ = fmt.Fprintf(w, "entries=%d max=%d hits=%d misses=%d rate=%.2f%%\n",
		stats.Entries, stats.MaxEntries, stats.Hits, stats.Misses, stats.HitRate*100)
}

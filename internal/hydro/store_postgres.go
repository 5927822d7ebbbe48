package hydro

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/basin-cli/internal/db"
)

const catchmentColumns = `hybas_id, next_down, next_sink, main_bas, dist_sink, dist_main,
		       sub_area, up_area, pfaf_id, endo, coast, "order", sort, level`

// LevelCount is the number of catchments loaded for one level.
type LevelCount struct {
	Level int   `json:"level"`
	Count int64 `json:"count"`
}

// PostgresStore implements Source on the hydro.catchments PostGIS table.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Containing implements Source.
func (s *PostgresStore) Containing(ctx context.Context, level int, lon, lat float64) ([]Catchment, error) {
	sql := `
		SELECT ` + catchmentColumns + `, ST_AsBinary(geom)
		FROM hydro.catchments
		WHERE level = $1 AND ST_Intersects(geom, ST_SetSRID(ST_MakePoint($2, $3), 4326))
		ORDER BY hybas_id
	`
	rows, err := s.pool.Query(ctx, sql, level, lon, lat)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: query containing catchments")
	}
	return scanCatchments(rows, true)
}

// Upstream implements Source. Geometry is not fetched; the resolver only
// needs ids.
func (s *PostgresStore) Upstream(ctx context.Context, level int, ids []int64) ([]Catchment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql := `
		SELECT ` + catchmentColumns + `
		FROM hydro.catchments
		WHERE level = $1 AND next_down = ANY($2)
		ORDER BY hybas_id
	`
	rows, err := s.pool.Query(ctx, sql, level, ids)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: query upstream catchments")
	}
	return scanCatchments(rows, false)
}

// Catchments implements Source.
func (s *PostgresStore) Catchments(ctx context.Context, level int, ids []int64) ([]Catchment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql := `
		SELECT ` + catchmentColumns + `, ST_AsBinary(geom)
		FROM hydro.catchments
		WHERE level = $1 AND hybas_id = ANY($2)
		ORDER BY hybas_id
	`
	rows, err := s.pool.Query(ctx, sql, level, ids)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: query catchments")
	}
	return scanCatchments(rows, true)
}

// DeleteLevel removes every catchment of a level.
func (s *PostgresStore) DeleteLevel(ctx context.Context, level int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM hydro.catchments WHERE level = $1`, level)
	if err != nil {
		return 0, eris.Wrap(err, "hydro: delete level")
	}
	return tag.RowsAffected(), nil
}

// LevelCounts returns how many catchments are loaded per level.
func (s *PostgresStore) LevelCounts(ctx context.Context) ([]LevelCount, error) {
	rows, err := s.pool.Query(ctx, `SELECT level, COUNT(*) FROM hydro.catchments GROUP BY level ORDER BY level`)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: count catchments")
	}
	defer rows.Close()

	var out []LevelCount
	for rows.Next() {
		var lc LevelCount
		if err := rows.Scan(&lc.Level, &lc.Count); err != nil {
			return nil, eris.Wrap(err, "hydro: scan level count")
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func scanCatchments(rows pgx.Rows, withGeom bool) ([]Catchment, error) {
	defer rows.Close()

	var out []Catchment
	for rows.Next() {
		var c Catchment
		dest := []any{
			&c.ID, &c.NextDown, &c.NextSink, &c.MainBasin, &c.DistSink, &c.DistMain,
			&c.SubArea, &c.UpArea, &c.PfafID, &c.Endo, &c.Coast, &c.Order, &c.Sort, &c.Level,
		}
		var wkb []byte
		if withGeom {
			dest = append(dest, &wkb)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "hydro: scan catchment row")
		}
		if withGeom {
			mp, err := DecodeWKB(wkb)
			if err != nil {
				return nil, eris.Wrapf(err, "hydro: catchment %d geometry", c.ID)
			}
			c.Geom = mp
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "hydro: iterate catchments")
	}
	return out, nil
}

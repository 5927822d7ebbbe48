package hydro

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Attribute columns written for every catchment, in row order. The geometry
// travels separately as EWKB.
var loadAttrColumns = []string{
	"hybas_id", "level", "next_down", "next_sink", "main_bas", "dist_sink", "dist_main",
	"sub_area", "up_area", "pfaf_id", "endo", "coast", "order", "sort",
}

const stagingTable = "catchments_staging"

// loadRows converts catchments into COPY rows: attributes then EWKB geometry.
// All catchments must carry a valid level.
func loadRows(cs []Catchment) ([][]any, error) {
	rows := make([][]any, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		if err := ValidateLevel(c.Level); err != nil {
			return nil, eris.Wrapf(err, "hydro: catchment %d", c.ID)
		}
		g, err := EncodeEWKB(c.Geom)
		if err != nil {
			return nil, eris.Wrapf(err, "hydro: encode catchment %d", c.ID)
		}
		rows = append(rows, []any{
			c.ID, c.Level, c.NextDown, c.NextSink, c.MainBasin, c.DistSink, c.DistMain,
			c.SubArea, c.UpArea, c.PfafID, c.Endo, c.Coast, c.Order, c.Sort, g,
		})
	}
	return rows, nil
}

func quotedColumns(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(q, ", ")
}

// upsertSQL moves the staged rows into hydro.catchments. Rows already present
// for (level, hybas_id) are overwritten and their loaded_at refreshed.
func upsertSQL() string {
	cols := quotedColumns(loadAttrColumns)
	var set []string
	for _, c := range loadAttrColumns {
		if c == "hybas_id" || c == "level" {
			continue
		}
		id := pgx.Identifier{c}.Sanitize()
		set = append(set, id+" = EXCLUDED."+id)
	}
	set = append(set, "geom = EXCLUDED.geom", "loaded_at = now()")

	return "INSERT INTO hydro.catchments (" + cols + ", geom) " +
		"SELECT " + cols + ", ST_Multi(ST_GeomFromEWKB(geom_ewkb)) FROM " + stagingTable + " " +
		"ON CONFLICT (level, hybas_id) DO UPDATE SET " + strings.Join(set, ", ")
}

// Load upserts catchments keyed by (level, hybas_id). Rows are COPYed into a
// transaction-scoped staging table holding the geometry as raw EWKB, then
// merged into hydro.catchments in one statement.
func (s *PostgresStore) Load(ctx context.Context, cs []Catchment) (int64, error) {
	if len(cs) == 0 {
		return 0, nil
	}
	rows, err := loadRows(cs)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "hydro: load: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	create := "CREATE TEMP TABLE " + stagingTable +
		" (LIKE hydro.catchments INCLUDING DEFAULTS, geom_ewkb BYTEA) ON COMMIT DROP"
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrap(err, "hydro: load: create staging table")
	}

	copyCols := append(append([]string{}, loadAttrColumns...), "geom_ewkb")
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, copyCols, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrap(err, "hydro: load: copy into staging table")
	}

	tag, err := tx.Exec(ctx, upsertSQL())
	if err != nil {
		return 0, eris.Wrap(err, "hydro: load: merge catchments")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "hydro: load: commit")
	}

	zap.L().Debug("catchments upserted",
		zap.String("component", "hydro.load"),
		zap.Int("rows", len(rows)),
		zap.Int64("affected", tag.RowsAffected()),
	)
	return tag.RowsAffected(), nil
}

// Copy streams catchments straight into hydro.catchments with COPY. It fails
// on duplicate keys, so the level must be empty (see DeleteLevel).
func (s *PostgresStore) Copy(ctx context.Context, cs []Catchment) (int64, error) {
	if len(cs) == 0 {
		return 0, nil
	}
	rows, err := loadRows(cs)
	if err != nil {
		return 0, err
	}
	cols := append(append([]string{}, loadAttrColumns...), "geom")
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"hydro", "catchments"}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrap(err, "hydro: copy catchments")
	}
	return n, nil
}

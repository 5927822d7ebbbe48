package hydro

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/wkb"
)

var catchmentCols = []string{
	"hybas_id", "next_down", "next_sink", "main_bas", "dist_sink", "dist_main",
	"sub_area", "up_area", "pfaf_id", "endo", "coast", "order", "sort", "level",
}

func catchmentRow(c Catchment) []any {
	return []any{
		c.ID, c.NextDown, c.NextSink, c.MainBasin, c.DistSink, c.DistMain,
		c.SubArea, c.UpArea, c.PfafID, c.Endo, c.Coast, c.Order, c.Sort, c.Level,
	}
}

func TestPostgresStore_Containing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := network()[0]
	geomBytes, err := wkb.Marshal(c.Geom, wkb.NDR)
	require.NoError(t, err)

	rows := pgxmock.NewRows(append(catchmentCols, "st_asbinary")).
		AddRow(append(catchmentRow(c), geomBytes)...)
	mock.ExpectQuery(`ST_Intersects\(geom, ST_SetSRID\(ST_MakePoint\(\$2, \$3\), 4326\)\)`).
		WithArgs(8, 0.5, 0.5).
		WillReturnRows(rows)

	got, err := NewPostgresStore(mock).Containing(context.Background(), 8, 0.5, 0.5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(100), got[0].ID)
	require.NotNil(t, got[0].Geom)
	assert.True(t, got[0].Contains(0.5, 0.5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upstream(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cs := network()
	rows := pgxmock.NewRows(catchmentCols).
		AddRow(catchmentRow(cs[1])...).
		AddRow(catchmentRow(cs[2])...)
	mock.ExpectQuery(`next_down = ANY\(\$2\)`).
		WithArgs(8, []int64{100}).
		WillReturnRows(rows)

	got, err := NewPostgresStore(mock).Upstream(context.Background(), 8, []int64{100})
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102}, IDs(got))
	assert.Nil(t, got[0].Geom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EmptyIDsSkipQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresStore(mock)
	got, err := s.Upstream(context.Background(), 8, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = s.Catchments(context.Background(), 8, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Catchments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := network()[4]
	geomBytes, err := wkb.Marshal(c.Geom, wkb.NDR)
	require.NoError(t, err)
	mock.ExpectQuery(`hybas_id = ANY\(\$2\)`).
		WithArgs(8, []int64{104}).
		WillReturnRows(pgxmock.NewRows(append(catchmentCols, "st_asbinary")).
			AddRow(append(catchmentRow(c), geomBytes)...))

	got, err := NewPostgresStore(mock).Catchments(context.Background(), 8, []int64{104})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(103), got[0].NextDown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM hydro.catchments").WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresStore(mock).Containing(context.Background(), 8, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hydro: query containing catchments")
}

func TestPostgresStore_DeleteLevel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM hydro.catchments WHERE level").
		WithArgs(8).
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	n, err := NewPostgresStore(mock).DeleteLevel(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestPostgresStore_LevelCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT level, COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"level", "count"}).
			AddRow(6, int64(1200)).
			AddRow(8, int64(15400)))

	got, err := NewPostgresStore(mock).LevelCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []LevelCount{{Level: 6, Count: 1200}, {Level: 8, Count: 15400}}, got)
}

func TestPostgresStore_ResolvesUpstream(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cs := network()
	geomBytes, err := wkb.Marshal(cs[3].Geom, wkb.NDR)
	require.NoError(t, err)
	mock.ExpectQuery("ST_Intersects").
		WithArgs(8, 1.5, 1.5).
		WillReturnRows(pgxmock.NewRows(append(catchmentCols, "st_asbinary")).
			AddRow(append(catchmentRow(cs[3]), geomBytes)...))
	mock.ExpectQuery("next_down = ANY").
		WithArgs(8, []int64{103}).
		WillReturnRows(pgxmock.NewRows(catchmentCols).AddRow(catchmentRow(cs[4])...))
	mock.ExpectQuery("next_down = ANY").
		WithArgs(8, []int64{104}).
		WillReturnRows(pgxmock.NewRows(catchmentCols))

	res, err := NewResolver(NewPostgresStore(mock), 10).Resolve(context.Background(), 8, 1.5, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []int64{103, 104}, res.IDs)
	assert.Equal(t, 2, res.Steps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package sink

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

func TestPostgresSinkWrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	radii := []float64{50}
	header := Header(radii)
	rows := Rows([]model.FeatureVector{testVector("b-1", radii), testVector("b-2", radii)})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"building_features"}, header).WillReturnResult(2)

	s := NewPostgres(mock, "", "", 0)
	require.NoError(t, s.Write(context.Background(), header, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkSchemaQualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	radii := []float64{50}
	header := Header(radii)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"morph", "features"}, header).WillReturnResult(1)

	s := NewPostgres(mock, "morph", "features", 0)
	require.NoError(t, s.Write(context.Background(), header, Rows([]model.FeatureVector{testVector("b-1", radii)})))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	radii := []float64{50}
	header := Header(radii)
	rows := Rows([]model.FeatureVector{
		testVector("b-1", radii),
		testVector("b-2", radii),
		testVector("b-3", radii),
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"building_features"}, header).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"building_features"}, header).WillReturnResult(1)

	s := NewPostgres(mock, "", "", 2)
	require.NoError(t, s.Write(context.Background(), header, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkCreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnError(fmt.Errorf("permission denied"))

	s := NewPostgres(mock, "", "", 0)
	err = s.Write(context.Background(), Header(nil), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkCopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	radii := []float64{50}
	header := Header(radii)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"building_features"}, header).WillReturnError(fmt.Errorf("permission denied for table building_features"))

	s := NewPostgres(mock, "", "", 0)
	err = s.Write(context.Background(), header, Rows([]model.FeatureVector{testVector("b-1", radii)}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy features")
	assert.NoError(t, mock.ExpectationsWereMet())
}

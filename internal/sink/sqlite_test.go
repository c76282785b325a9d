package sink

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

func TestSQLiteSinkRoundTrip(t *testing.T) {
	radii := []float64{50}
	header := Header(radii)
	rows := Rows([]model.FeatureVector{
		testVector("b-1", radii),
		degenerateVector("b-2", radii),
	})

	path := filepath.Join(t.TempDir(), "features.db")
	s := NewSQLite(path, "")
	require.NoError(t, s.Write(context.Background(), header, rows))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "building_features"`).Scan(&count))
	assert.Equal(t, 2, count)

	var sqm, nnd, sa float64
	var vc int
	require.NoError(t, db.QueryRow(
		`SELECT "sqmeters", "nnd", "shape_area", "vertex_count" FROM "building_features" WHERE "build_id" = ?`, "b-1",
	).Scan(&sqm, &nnd, &sa, &vc))
	assert.InDelta(t, 100.0, sqm, 1e-9)
	assert.InDelta(t, 7.5, nnd, 1e-9)
	assert.InDelta(t, 100.0, sa, 1e-9)
	assert.Equal(t, 5, vc)

	// NaN ratios and the absent part count land as NULL.
	var gc sql.NullInt64
	var cr sql.NullFloat64
	require.NoError(t, db.QueryRow(
		`SELECT "geom_count", "complexity_ratio" FROM "building_features" WHERE "build_id" = ?`, "b-2",
	).Scan(&gc, &cr))
	assert.False(t, gc.Valid)
	assert.False(t, cr.Valid)
}

func TestSQLiteSinkCustomTable(t *testing.T) {
	radii := []float64{100}
	path := filepath.Join(t.TempDir(), "features.db")
	s := NewSQLite(path, "morph")
	require.NoError(t, s.Write(context.Background(), Header(radii), Rows([]model.FeatureVector{testVector("b-1", radii)})))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "morph"`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteSinkEmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, NewSQLite(path, "").Write(context.Background(), Header(nil), nil))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "building_features"`).Scan(&count))
	assert.Equal(t, 0, count)
}

package sink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

func TestXLSXSinkRoundTrip(t *testing.T) {
	radii := []float64{50}
	header := Header(radii)
	rows := Rows([]model.FeatureVector{
		testVector("b-1", radii),
		degenerateVector("b-2", radii),
	})

	path := filepath.Join(t.TempDir(), "features.xlsx")
	s := NewXLSX(path, "")
	require.NoError(t, s.Write(context.Background(), header, rows))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "features", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "build_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "b-1", sheet.Rows[1].Cells[0].String())

	sqm, err := sheet.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 100.0, sqm, 1e-9)

	nnd, err := sheet.Rows[1].Cells[3].Float()
	require.NoError(t, err)
	assert.InDelta(t, 7.5, nnd, 1e-9)

	vc, err := sheet.Rows[1].Cells[9].Int()
	require.NoError(t, err)
	assert.Equal(t, 5, vc)

	// Degenerate part count and NaN ratios are blank cells.
	assert.Equal(t, "", sheet.Rows[2].Cells[10].String())
	assert.Equal(t, "", sheet.Rows[2].Cells[11].String())
}

func TestXLSXSinkNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named.xlsx")
	s := NewXLSX(path, "morphology")
	require.NoError(t, s.Write(context.Background(), Header(nil), nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, "morphology", f.Sheets[0].Name)
}

func TestXLSXSinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	radii := []float64{50}
	path := filepath.Join(t.TempDir(), "cancelled.xlsx")
	err := NewXLSX(path, "").Write(ctx, Header(radii), Rows([]model.FeatureVector{testVector("b-1", radii)}))
	assert.Error(t, err)
}

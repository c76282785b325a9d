package sink

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

// testVector builds a fully populated feature vector with one neighbor tuple
// per radius.
func testVector(id string, radii []float64) model.FeatureVector {
	gc := 1
	fv := model.FeatureVector{
		ID:        id,
		AreaSqm:   100,
		AreaSqft:  1076.39,
		Perimeter: 40,
		NND:       7.5,
		Shape: model.ShapeDescriptor{
			LatDiff:         10,
			LongDiff:        10,
			EnvelopeArea:    100,
			VertexCount:     5,
			GeomCount:       &gc,
			ComplexityRatio: 0.4,
			IASL:            0.125,
			VPA:             0.05,
			ComplexityPS:    0.08,
			IPQ:             4 * math.Pi * 100 / 1600,
		},
	}
	for i := range radii {
		fv.Neighbors = append(fv.Neighbors, model.NeighborStats{
			Count:     i + 1,
			OMD:       1.5,
			EMD:       2.5,
			NNI:       0.6,
			Intensity: 3.5,
			SizeMean:  1076.39,
			SizeStd:   0,
			SizeMin:   1076.39,
			SizeMax:   1076.39,
			SizeCV:    0,
		})
	}
	return fv
}

// degenerateVector mimics a record whose geometry could not be decomposed:
// no part count and NaN ratio fields.
func degenerateVector(id string, radii []float64) model.FeatureVector {
	fv := testVector(id, radii)
	fv.Shape.VertexCount = 0
	fv.Shape.GeomCount = nil
	fv.Shape.ComplexityRatio = math.NaN()
	fv.Shape.IASL = math.NaN()
	fv.Shape.VPA = math.NaN()
	fv.Shape.ComplexityPS = math.NaN()
	fv.Shape.IPQ = math.NaN()
	return fv
}

func TestHeaderLayout(t *testing.T) {
	radii := []float64{50, 100, 250, 500, 1000}
	header := Header(radii)

	require.Len(t, header, 16+len(radii)*10)
	assert.Equal(t, "build_id", header[0])
	assert.Equal(t, "sqmeters", header[1])
	assert.Equal(t, "sqft", header[2])
	assert.Equal(t, "nnd", header[3])
	assert.Equal(t, "shape_area", header[4])
	assert.Equal(t, "shape_length", header[5])
	assert.Equal(t, "ipq", header[15])
	assert.Equal(t, "n_count_50", header[16])
	assert.Equal(t, "n_size_cv_50", header[25])
	assert.Equal(t, "n_count_100", header[26])
	assert.Equal(t, "n_size_cv_1000", header[len(header)-1])
}

func TestHeaderRadiusFormatting(t *testing.T) {
	header := Header([]float64{12.5})
	assert.Equal(t, "n_count_12.5", header[16])
}

func TestRowMatchesHeader(t *testing.T) {
	radii := []float64{50, 100}
	fv := testVector("b-1", radii)

	row := Row(fv)
	require.Len(t, row, len(Header(radii)))

	assert.Equal(t, "b-1", row[0])
	assert.Equal(t, 100.0, row[1])
	assert.Equal(t, 1076.39, row[2])
	assert.Equal(t, 7.5, row[3])   // nnd
	assert.Equal(t, 100.0, row[4]) // shape_area repeats sqmeters
	assert.Equal(t, 40.0, row[5])
	assert.Equal(t, 5, row[9])
	assert.Equal(t, 1, row[10])
	assert.Equal(t, 1, row[16]) // n_count_50
	assert.Equal(t, 2, row[26]) // n_count_100
}

func TestRowDegenerate(t *testing.T) {
	fv := degenerateVector("b-x", nil)
	row := Row(fv)

	assert.Equal(t, 0, row[9])
	assert.Nil(t, row[10])
	assert.True(t, math.IsNaN(row[11].(float64)))
}

func TestRowsPreserveOrder(t *testing.T) {
	radii := []float64{50}
	rows := Rows([]model.FeatureVector{
		testVector("b-1", radii),
		testVector("b-2", radii),
		testVector("b-3", radii),
	})
	require.Len(t, rows, 3)
	assert.Equal(t, "b-1", rows[0][0])
	assert.Equal(t, "b-3", rows[2][0])
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "b-1", "b-1"},
		{"int", 42, "42"},
		{"float", 0.4, "0.4"},
		{"nan", math.NaN(), ""},
		{"large float", 1076.39, "1076.39"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellString(tt.in))
		})
	}
}

// Package sink persists flattened feature vectors. Every implementation
// receives the same ordered header and row slices, so the column layout is
// identical across CSV, XLSX, SQLite and Postgres outputs.
package sink

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

// Sink writes a complete feature table. Implementations are single-shot:
// one Write call per pipeline run.
type Sink interface {
	Write(ctx context.Context, header []string, rows [][]any) error
}

// shapeColumns are the per-record morphology columns, in output order.
var shapeColumns = []string{
	"build_id",
	"sqmeters",
	"sqft",
	"nnd",
	"shape_area",
	"shape_length",
	"lat_dif",
	"long_dif",
	"envel_area",
	"vertex_count",
	"geom_count",
	"complexity_ratio",
	"iasl",
	"vpa",
	"complexity_ps",
	"ipq",
}

// windowColumns are the per-radius statistic column stems, suffixed with the
// radius value.
var windowColumns = []string{
	"n_count",
	"omd",
	"emd",
	"nni",
	"intensity",
	"n_size_mean",
	"n_size_std",
	"n_size_min",
	"n_size_max",
	"n_size_cv",
}

// Header builds the flat output column list for the given radius set.
func Header(radii []float64) []string {
	cols := make([]string, 0, len(shapeColumns)+len(radii)*len(windowColumns))
	cols = append(cols, shapeColumns...)
	for _, r := range radii {
		suffix := strconv.FormatFloat(r, 'f', -1, 64)
		for _, stem := range windowColumns {
			cols = append(cols, stem+"_"+suffix)
		}
	}
	return cols
}

// Row flattens one feature vector into the Header column order. Indeterminate
// ratios stay NaN and an absent part count becomes nil; each sink decides how
// to render those.
func Row(fv model.FeatureVector) []any {
	row := make([]any, 0, len(shapeColumns)+len(fv.Neighbors)*len(windowColumns))

	var geomCount any
	if fv.Shape.GeomCount != nil {
		geomCount = *fv.Shape.GeomCount
	}

	// shape_area repeats the projected area; the historical table carries
	// both spellings.
	row = append(row,
		fv.ID,
		fv.AreaSqm,
		fv.AreaSqft,
		fv.NND,
		fv.AreaSqm,
		fv.Perimeter,
		fv.Shape.LatDiff,
		fv.Shape.LongDiff,
		fv.Shape.EnvelopeArea,
		fv.Shape.VertexCount,
		geomCount,
		fv.Shape.ComplexityRatio,
		fv.Shape.IASL,
		fv.Shape.VPA,
		fv.Shape.ComplexityPS,
		fv.Shape.IPQ,
	)

	for _, ns := range fv.Neighbors {
		row = append(row,
			ns.Count,
			ns.OMD,
			ns.EMD,
			ns.NNI,
			ns.Intensity,
			ns.SizeMean,
			ns.SizeStd,
			ns.SizeMin,
			ns.SizeMax,
			ns.SizeCV,
		)
	}

	return row
}

// Rows flattens a feature slice, preserving order.
func Rows(features []model.FeatureVector) [][]any {
	rows := make([][]any, len(features))
	for i, fv := range features {
		rows[i] = Row(fv)
	}
	return rows
}

// cellString renders a flattened value for text-oriented sinks. NaN and nil
// both become the empty string, matching how dataframe CSV dumps render
// missing values.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

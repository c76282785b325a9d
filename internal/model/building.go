// Package model defines the data types flowing through the gauntlet pipeline:
// ingested building footprints, per-record shape descriptors, windowed
// neighbor statistics, and the flat feature vectors handed to sinks.
package model

import (
	"github.com/twpayne/go-geom"
)

// SqmToSqft converts square meters to square feet.
const SqmToSqft = 10.7639

// BuildingRecord is a single building footprint as produced by ingestion.
// Geometry is a Polygon or MultiPolygon in a projected (meter) CRS; the
// centroid is carried in both planar and geographic coordinates. Records are
// immutable once they enter the pipeline.
type BuildingRecord struct {
	ID       string
	Geometry geom.T

	// Derived scalars, computed at ingest time.
	AreaSqm   float64
	AreaSqft  float64
	Perimeter float64

	// Centroid in planar (meter) coordinates.
	CentroidX float64
	CentroidY float64

	// Centroid in geographic (degree) coordinates.
	Lon float64
	Lat float64
}

// ShapeDescriptor holds per-polygon geometric measurements. Ratio fields use
// NaN as the sentinel for indeterminate values (zero area or perimeter, or a
// geometry whose rings could not be counted); GeomCount is nil in that case.
type ShapeDescriptor struct {
	LatDiff      float64
	LongDiff     float64
	EnvelopeArea float64
	VertexCount  int
	GeomCount    *int

	ComplexityRatio float64 // perimeter / area
	IASL            float64 // vertex count / perimeter
	VPA             float64 // vertex count / area
	ComplexityPS    float64 // complexity ratio / vertex count
	IPQ             float64 // 4*pi*area / perimeter^2
}

// NeighborStats is the ten-field neighbor statistic tuple for one scan radius.
type NeighborStats struct {
	Count     int
	OMD       float64 // observed mean distance
	EMD       float64 // expected mean distance
	NNI       float64 // nearest-neighbor index (OMD/EMD)
	Intensity float64

	SizeMean float64
	SizeStd  float64
	SizeMin  float64
	SizeMax  float64
	SizeCV   float64
}

// FeatureVector is the terminal per-record output. Neighbors is parallel to
// the configured radius list, in the same order.
type FeatureVector struct {
	ID        string
	AreaSqm   float64
	AreaSqft  float64
	Perimeter float64

	// NND is the distance to the nearest other record, in index-coordinate
	// units.
	NND float64

	Shape     ShapeDescriptor
	Neighbors []NeighborStats
}

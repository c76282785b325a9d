// Package features computes the per-record morphology descriptors and the
// windowed neighbor statistics that make up a gauntlet feature vector.
package features

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

// DefaultRadii are the scan radii evaluated per record when none are
// configured. The unit must agree with the unit of the spatial index
// coordinates for the resulting NNI to be meaningful.
var DefaultRadii = []float64{50, 100, 250, 500, 1000}

// Describe computes the shape descriptor for a polygon or multipolygon. Area
// and perimeter are passed in (already derived at ingest) so the descriptor
// works purely on the coordinate structure. Ratios with a zero denominator
// come back as NaN; a geometry that cannot be decomposed into rings yields
// VertexCount 0 and a nil GeomCount without error.
func Describe(g geom.T, area, perimeter float64) model.ShapeDescriptor {
	var d model.ShapeDescriptor

	if g != nil {
		b := g.Bounds()
		d.LatDiff = math.Abs(b.Max(1) - b.Min(1))
		d.LongDiff = math.Abs(b.Max(0) - b.Min(0))
		d.EnvelopeArea = d.LatDiff * d.LongDiff
	}

	if vc, gc, ok := countRings(g); ok {
		d.VertexCount = vc
		d.GeomCount = &gc
	}

	vc := float64(d.VertexCount)
	d.ComplexityRatio = safeDiv(perimeter, area)
	d.IASL = safeDiv(vc, perimeter)
	d.VPA = safeDiv(vc, area)
	d.ComplexityPS = safeDiv(d.ComplexityRatio, vc)
	d.IPQ = safeDiv(4*math.Pi*area, perimeter*perimeter)

	return d
}

// countRings returns the total vertex count and ring count for a geometry.
// For a MultiPolygon the counts cover the first constituent polygon (outer
// ring plus holes), matching the upstream feature definition; for a Polygon
// they cover its own rings. ok is false for anything else.
func countRings(g geom.T) (vertices, rings int, ok bool) {
	var poly *geom.Polygon

	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return 0, 0, false
		}
		poly = t.Polygon(0)
	default:
		return 0, 0, false
	}

	rings = poly.NumLinearRings()
	if rings == 0 {
		return 0, 0, false
	}
	for i := 0; i < rings; i++ {
		vertices += poly.LinearRing(i).NumCoords()
	}
	return vertices, rings, true
}

// safeDiv returns a/b, or NaN when the denominator is zero or either operand
// is already NaN.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}

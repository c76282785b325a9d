// Package ingest reads building footprints from shapefiles or GeoJSON into
// ordered BuildingRecord slices. Geometry is expected in a projected (meter)
// CRS; reprojection is out of scope. When the source carries no separate
// geographic coordinates, the geographic centroid duplicates the planar one
// and the index coordinate choice collapses to a single interpretation.
package ingest

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

// Options configures both ingest formats.
type Options struct {
	// IDField names the attribute/property holding the unique record id
	// (e.g. BUILD_ID). When empty or absent on a record, the record ordinal
	// is used.
	IDField string

	// LonField / LatField optionally name attributes carrying a precomputed
	// geographic centroid. When unset the planar centroid is reused.
	LonField string
	LatField string
}

// buildRecord derives the scalar attributes for one footprint. Returns an
// error for geometry whose area/length cannot be computed (unsupported type);
// such records are skipped by the callers, not fatal.
func buildRecord(id string, g geom.T, lon, lat *float64) (model.BuildingRecord, error) {
	var area, perimeter float64
	switch t := g.(type) {
	case *geom.Polygon:
		area = t.Area()
		perimeter = t.Length()
	case *geom.MultiPolygon:
		area = t.Area()
		perimeter = t.Length()
	default:
		return model.BuildingRecord{}, eris.Errorf("ingest: unsupported geometry type %T", g)
	}
	// Shapefile outer rings run clockwise, which flips the sign of the
	// shoelace area. Footprint area is always reported positive.
	area = math.Abs(area)

	centroid, err := xy.Centroid(g)
	if err != nil {
		// Fall back to the envelope center for degenerate rings.
		b := g.Bounds()
		centroid = geom.Coord{(b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2}
	}

	rec := model.BuildingRecord{
		ID:        id,
		Geometry:  g,
		AreaSqm:   area,
		AreaSqft:  area * model.SqmToSqft,
		Perimeter: perimeter,
		CentroidX: centroid[0],
		CentroidY: centroid[1],
		Lon:       centroid[0],
		Lat:       centroid[1],
	}
	if lon != nil {
		rec.Lon = *lon
	}
	if lat != nil {
		rec.Lat = *lat
	}
	return rec, nil
}

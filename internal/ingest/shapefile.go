package ingest

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

// Shapefile reads every polygon record from a shapefile in file order.
// Records with nil or non-polygon shapes are skipped with a debug log.
func Shapefile(path string, opts Options) ([]model.BuildingRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name -> index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(nameLower string) (string, bool) {
		idx, ok := fieldIdx[nameLower]
		if !ok {
			return "", false
		}
		val := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		return val, val != ""
	}

	log := zap.L().With(zap.String("component", "ingest.shapefile"), zap.String("path", path))

	var records []model.BuildingRecord
	var skipped int
	ordinal := -1

	for reader.Next() {
		ordinal++
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}

		g := polygonToMultiPolygon(poly)
		if g == nil {
			skipped++
			continue
		}

		id := strconv.Itoa(ordinal)
		if opts.IDField != "" {
			if v, ok := attr(strings.ToLower(opts.IDField)); ok {
				id = v
			}
		}

		var lon, lat *float64
		if opts.LonField != "" && opts.LatField != "" {
			if lonStr, ok := attr(strings.ToLower(opts.LonField)); ok {
				if v, perr := strconv.ParseFloat(lonStr, 64); perr == nil {
					lon = &v
				}
			}
			if latStr, ok := attr(strings.ToLower(opts.LatField)); ok {
				if v, perr := strconv.ParseFloat(latStr, 64); perr == nil {
					lat = &v
				}
			}
		}

		rec, err := buildRecord(id, g, lon, lat)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Debug("skipped shapefile records", zap.Int("skipped", skipped))
	}
	log.Info("shapefile ingested", zap.Int("records", len(records)), zap.Int("skipped", skipped))

	return records, nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Each shapefile part becomes one single-ring polygon.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

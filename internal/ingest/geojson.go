package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/geomorph-labs/gauntlet/internal/model"
)

// GeoJSON reads a FeatureCollection file in feature order. Features whose
// geometry is missing or not polygonal are skipped with a debug log.
func GeoJSON(path string, opts Options) ([]model.BuildingRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read geojson %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse geojson %s", path)
	}

	log := zap.L().With(zap.String("component", "ingest.geojson"), zap.String("path", path))

	var records []model.BuildingRecord
	var skipped int

	for ordinal, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}

		id := strconv.Itoa(ordinal)
		if f.ID != "" {
			id = f.ID
		}
		if opts.IDField != "" {
			if v, ok := f.Properties[opts.IDField]; ok {
				id = fmt.Sprintf("%v", v)
			}
		}

		var lon, lat *float64
		if opts.LonField != "" && opts.LatField != "" {
			lon = numericProperty(f.Properties, opts.LonField)
			lat = numericProperty(f.Properties, opts.LatField)
		}

		rec, err := buildRecord(id, f.Geometry, lon, lat)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Debug("skipped geojson features", zap.Int("skipped", skipped))
	}
	log.Info("geojson ingested", zap.Int("records", len(records)), zap.Int("skipped", skipped))

	return records, nil
}

// numericProperty extracts a float property, tolerating json numbers and
// numeric strings.
func numericProperty(props map[string]interface{}, key string) *float64 {
	v, ok := props[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}

// Package pipeline runs the two-stage parallel feature computation: stage A
// derives every record's nearest-neighbor distance against a shared spatial
// index, a snapshot of dataset-wide arrays is frozen at the barrier, and
// stage B computes shape descriptors plus radius-windowed neighbor statistics
// for every record. Row order is preserved end to end so the index, the
// snapshot, and the output stay aligned.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geomorph-labs/gauntlet/internal/features"
	"github.com/geomorph-labs/gauntlet/internal/index"
	"github.com/geomorph-labs/gauntlet/internal/model"
)

// IndexCoords selects which centroid pair feeds the spatial index.
type IndexCoords string

const (
	// CoordsGeographic indexes the lon/lat centroid (degrees). This is the
	// historical behavior; the scan radii are then in degrees too, whatever
	// their nominal values suggest.
	CoordsGeographic IndexCoords = "geographic"
	// CoordsPlanar indexes the projected centroid (meters), making
	// meter-valued scan radii meaningful.
	CoordsPlanar IndexCoords = "planar"
)

const defaultMaxRecordsPerWorker = 150000

// Options configures a pipeline run.
type Options struct {
	Workers             int         // parallel workers (default: NumCPU)
	MaxRecordsPerWorker int         // stage-B per-partition row budget (default 150,000)
	Radii               []float64   // scan radii (default 50,100,250,500,1000)
	IndexCoords         IndexCoords // centroid pair for the index (default geographic)

	// BestEffort restores the legacy stage-B failure policy: a failed
	// partition is logged and dropped from the output instead of failing the
	// run. Stage A is always strict because the snapshot depends on its
	// complete output.
	BestEffort bool
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.MaxRecordsPerWorker <= 0 {
		o.MaxRecordsPerWorker = defaultMaxRecordsPerWorker
	}
	if len(o.Radii) == 0 {
		o.Radii = features.DefaultRadii
	}
	if o.IndexCoords == "" {
		o.IndexCoords = CoordsGeographic
	}
}

// Result is the outcome of a full pipeline run.
type Result struct {
	RunID    string
	Features []model.FeatureVector

	InputRecords      int
	FilteredRecords   int // dropped before the pipeline for nil geometry
	GeometryFaults    int // records whose rings could not be counted
	DroppedPartitions int // stage-B partitions lost in best-effort mode

	StageA time.Duration
	StageB time.Duration
}

// Run executes both pipeline stages over the records and returns one feature
// vector per surviving record, in input order. Fatal errors (context
// cancellation, alignment failure, strict-mode partition faults) abort the
// run; geometry faults degrade individual records only.
func Run(ctx context.Context, records []model.BuildingRecord, opts Options) (*Result, error) {
	opts.setDefaults()

	res := &Result{
		RunID:        uuid.New().String(),
		InputRecords: len(records),
	}

	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", res.RunID),
	)

	kept := filterGeometry(records)
	res.FilteredRecords = len(records) - len(kept)
	n := len(kept)

	// Record ids are expected to be unique; duplicates usually mean the id
	// attribute is missing on part of the input and ordinals got mixed in.
	if dups := duplicateIDs(kept); dups > 0 {
		log.Warn("duplicate record ids in input", zap.Int("duplicates", dups))
	}

	log.Info("pipeline starting",
		zap.Int("records", n),
		zap.Int("filtered", res.FilteredRecords),
		zap.Int("workers", opts.Workers),
		zap.Float64s("radii", opts.Radii),
		zap.String("index_coords", string(opts.IndexCoords)),
	)

	if n == 0 {
		res.Features = []model.FeatureVector{}
		return res, nil
	}

	// The index is built once over every surviving centroid, including each
	// record's own, and shared read-only by all workers in both stages.
	points := make([]index.Point, n)
	for i, rec := range kept {
		points[i] = indexPoint(rec, opts.IndexCoords)
	}
	tree := index.Build(points)
	eng := features.NewEngine(tree)

	// Stage A: nearest-neighbor distance per record.
	startA := time.Now()
	nnd, err := runStageA(ctx, kept, eng, opts, log)
	if err != nil {
		return nil, err
	}
	res.StageA = time.Since(startA)

	// Barrier: freeze the global arrays and check alignment before any
	// stage-B work is dispatched.
	size := make([]float64, n)
	for i, rec := range kept {
		size[i] = rec.AreaSqft
	}
	snap := NewSnapshot(nnd, size)
	if err := snap.Validate(tree.Len()); err != nil {
		return nil, err
	}

	// Stage B: shape descriptors and all radius windows.
	startB := time.Now()
	if err := runStageB(ctx, kept, eng, snap, opts, log, res); err != nil {
		return nil, err
	}
	res.StageB = time.Since(startB)

	log.Info("pipeline complete",
		zap.Int("features", len(res.Features)),
		zap.Int("geometry_faults", res.GeometryFaults),
		zap.Int("dropped_partitions", res.DroppedPartitions),
		zap.Duration("stage_a", res.StageA),
		zap.Duration("stage_b", res.StageB),
	)
	return res, nil
}

// duplicateIDs counts records whose ID already appeared earlier in the
// slice.
func duplicateIDs(records []model.BuildingRecord) int {
	seen := make(map[string]struct{}, len(records))
	dups := 0
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			dups++
			continue
		}
		seen[rec.ID] = struct{}{}
	}
	return dups
}

// filterGeometry drops records with nil geometry, preserving order.
func filterGeometry(records []model.BuildingRecord) []model.BuildingRecord {
	kept := make([]model.BuildingRecord, 0, len(records))
	for _, rec := range records {
		if rec.Geometry == nil {
			zap.L().Debug("dropping record with nil geometry", zap.String("id", rec.ID))
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func indexPoint(rec model.BuildingRecord, coords IndexCoords) index.Point {
	if coords == CoordsPlanar {
		return index.Point{X: rec.CentroidX, Y: rec.CentroidY}
	}
	return index.Point{X: rec.Lon, Y: rec.Lat}
}

// runStageA fans the dataset out over the workers and fills the NND array in
// input row order. Any partition failure fails the stage.
func runStageA(
	ctx context.Context,
	records []model.BuildingRecord,
	eng *features.Engine,
	opts Options,
	log *zap.Logger,
) ([]float64, error) {
	n := len(records)
	nnd := make([]float64, n)
	spans := Partition(n, opts.Workers)
	prog := newProgress(log, "nnd", n)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, span := range spans {
		span := span
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			for i := span.Start; i < span.End; i++ {
				p := indexPoint(records[i], opts.IndexCoords)
				nnd[i] = eng.NearestDistance(p.X, p.Y)
			}
			prog.Add(span.End - span.Start)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: stage A")
	}
	prog.Finish()
	return nnd, nil
}

// runStageB computes the full feature vector per record. Partition sizing is
// re-derived with the per-worker row budget; each task gets the index and the
// snapshot read-only.
func runStageB(
	ctx context.Context,
	records []model.BuildingRecord,
	eng *features.Engine,
	snap *Snapshot,
	opts Options,
	log *zap.Logger,
	res *Result,
) error {
	n := len(records)
	out := make([]model.FeatureVector, n)
	spans := Partition(n, StageBParts(n, opts.Workers, opts.MaxRecordsPerWorker))
	prog := newProgress(log, "features", n)

	var geomFaults atomic.Int64
	var mu sync.Mutex
	var dropped []Span

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, span := range spans {
		span := span
		g.Go(func() error {
			err := func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				for i := span.Start; i < span.End; i++ {
					fv, err := buildFeature(records[i], i, eng, snap, opts, &geomFaults)
					if err != nil {
						return err
					}
					out[i] = fv
				}
				return nil
			}()

			if err != nil && opts.BestEffort && !eris.Is(err, context.Canceled) {
				log.Error("partition failed, dropping from output",
					zap.Int("start", span.Start),
					zap.Int("end", span.End),
					zap.Error(err),
				)
				mu.Lock()
				dropped = append(dropped, span)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}

			prog.Add(span.End - span.Start)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "pipeline: stage B")
	}
	prog.Finish()

	res.GeometryFaults = int(geomFaults.Load())
	res.DroppedPartitions = len(dropped)
	res.Features = excludeSpans(out, dropped)
	return nil
}

// buildFeature computes one record's shape descriptor and every radius
// window. A window error (snapshot misalignment) is a partition fault.
func buildFeature(
	rec model.BuildingRecord,
	row int,
	eng *features.Engine,
	snap *Snapshot,
	opts Options,
	geomFaults *atomic.Int64,
) (model.FeatureVector, error) {
	fv := model.FeatureVector{
		ID:        rec.ID,
		AreaSqm:   rec.AreaSqm,
		AreaSqft:  rec.AreaSqft,
		Perimeter: rec.Perimeter,
		NND:       snap.NND(row),
		Shape:     features.Describe(rec.Geometry, rec.AreaSqm, rec.Perimeter),
	}
	if fv.Shape.GeomCount == nil {
		geomFaults.Add(1)
	}

	p := indexPoint(rec, opts.IndexCoords)
	fv.Neighbors = make([]model.NeighborStats, len(opts.Radii))
	for ri, r := range opts.Radii {
		stats, err := eng.Window(p.X, p.Y, r, snap)
		if err != nil {
			return fv, eris.Wrapf(err, "pipeline: record %s radius %g", rec.ID, r)
		}
		fv.Neighbors[ri] = stats
	}
	return fv, nil
}

// excludeSpans returns rows outside the dropped spans, preserving order.
func excludeSpans(rows []model.FeatureVector, dropped []Span) []model.FeatureVector {
	if len(dropped) == 0 {
		return rows
	}

	drop := make([]bool, len(rows))
	for _, s := range dropped {
		for i := s.Start; i < s.End; i++ {
			drop[i] = true
		}
	}

	kept := make([]model.FeatureVector, 0, len(rows))
	for i, row := range rows {
		if !drop[i] {
			kept = append(kept, row)
		}
	}
	return kept
}

package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geomorph-labs/gauntlet/internal/ingest"
	"github.com/geomorph-labs/gauntlet/internal/model"
	"github.com/geomorph-labs/gauntlet/internal/pipeline"
	"github.com/geomorph-labs/gauntlet/internal/resilience"
	"github.com/geomorph-labs/gauntlet/internal/sink"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full feature pipeline over a footprint file",
	Long: `Ingests building footprints, runs both pipeline stages (global
nearest-neighbor distances, then shape descriptors and windowed neighbor
statistics per scan radius) and writes the feature table to the configured
sink.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "run"))

		input, _ := cmd.Flags().GetString("input")
		records, err := loadRecords(cmd, input)
		if err != nil {
			return err
		}
		log.Info("footprints loaded", zap.String("input", input), zap.Int("records", len(records)))

		opts := pipeline.Options{
			Workers:             cfg.Pipeline.Workers,
			MaxRecordsPerWorker: cfg.Pipeline.MaxRecordsPerWorker,
			Radii:               cfg.Features.Radii,
			IndexCoords:         pipeline.IndexCoords(cfg.Index.Coords),
			BestEffort:          cfg.Pipeline.BestEffort,
		}
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			opts.Workers = workers
		}
		if maxRecords, _ := cmd.Flags().GetInt("max-records"); maxRecords > 0 {
			opts.MaxRecordsPerWorker = maxRecords
		}
		if radii, _ := cmd.Flags().GetFloat64Slice("radii"); len(radii) > 0 {
			opts.Radii = radii
		}
		if coords, _ := cmd.Flags().GetString("coords"); coords != "" {
			opts.IndexCoords = pipeline.IndexCoords(coords)
		}
		if bestEffort, _ := cmd.Flags().GetBool("best-effort"); bestEffort {
			opts.BestEffort = true
		}

		res, err := pipeline.Run(ctx, records, opts)
		if err != nil {
			return eris.Wrap(err, "run: pipeline")
		}

		log.Info("pipeline finished",
			zap.String("run_id", res.RunID),
			zap.Int("features", len(res.Features)),
			zap.Int("filtered", res.FilteredRecords),
			zap.Int("geometry_faults", res.GeometryFaults),
			zap.Int("dropped_partitions", res.DroppedPartitions),
			zap.Duration("stage_a", res.StageA),
			zap.Duration("stage_b", res.StageB))

		out, cleanup, err := buildSink(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		header := sink.Header(opts.Radii)
		if err := out.Write(ctx, header, sink.Rows(res.Features)); err != nil {
			return eris.Wrap(err, "run: write features")
		}

		return nil
	},
}

// loadRecords ingests the input file, inferring the format from the file
// extension unless one is forced by flag or config.
func loadRecords(cmd *cobra.Command, input string) ([]model.BuildingRecord, error) {
	if input == "" {
		return nil, eris.New("run: --input is required")
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		switch strings.ToLower(filepath.Ext(input)) {
		case ".shp":
			format = "shapefile"
		case ".geojson", ".json":
			format = "geojson"
		default:
			format = cfg.Ingest.Format
		}
	}

	opts := ingest.Options{
		IDField:  cfg.Ingest.IDField,
		LonField: cfg.Ingest.LonField,
		LatField: cfg.Ingest.LatField,
	}
	if idField, _ := cmd.Flags().GetString("id-field"); idField != "" {
		opts.IDField = idField
	}
	if lonField, _ := cmd.Flags().GetString("lon-field"); lonField != "" {
		opts.LonField = lonField
	}
	if latField, _ := cmd.Flags().GetString("lat-field"); latField != "" {
		opts.LatField = latField
	}

	switch format {
	case "shapefile":
		return ingest.Shapefile(input, opts)
	case "geojson":
		return ingest.GeoJSON(input, opts)
	default:
		return nil, eris.Errorf("run: unknown input format %q", format)
	}
}

// buildSink resolves the output sink from flags and config. The cleanup
// function closes any connection pool the sink holds.
func buildSink(ctx context.Context, cmd *cobra.Command) (sink.Sink, func(), error) {
	format, _ := cmd.Flags().GetString("sink")
	if format == "" {
		format = cfg.Sink.Format
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.Sink.Path
	}
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = cfg.Sink.DSN
	}

	noop := func() {}

	switch format {
	case "csv":
		if output == "" {
			return nil, nil, eris.New("run: csv sink needs --output")
		}
		return sink.NewCSV(output), noop, nil
	case "xlsx":
		if output == "" {
			return nil, nil, eris.New("run: xlsx sink needs --output")
		}
		return sink.NewXLSX(output, ""), noop, nil
	case "sqlite":
		if output == "" {
			return nil, nil, eris.New("run: sqlite sink needs --output")
		}
		return sink.NewSQLite(output, cfg.Sink.Table), noop, nil
	case "postgres":
		if dsn == "" {
			return nil, nil, eris.New("run: postgres sink needs --dsn")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, eris.Wrap(err, "run: connect postgres")
		}
		err = resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		if err != nil {
			pool.Close()
			return nil, nil, eris.Wrap(err, "run: ping postgres")
		}
		s := sink.NewPostgres(pool, cfg.Sink.Schema, cfg.Sink.Table, cfg.Sink.BatchSize)
		return s, pool.Close, nil
	default:
		return nil, nil, eris.Errorf("run: unknown sink format %q", format)
	}
}

func init() {
	runCmd.Flags().String("input", "", "path to the footprint file (.shp, .geojson)")
	runCmd.Flags().String("format", "", "input format: shapefile or geojson (default: by extension)")
	runCmd.Flags().String("id-field", "", "attribute holding the unique record id")
	runCmd.Flags().String("lon-field", "", "attribute holding a precomputed centroid longitude")
	runCmd.Flags().String("lat-field", "", "attribute holding a precomputed centroid latitude")
	runCmd.Flags().String("output", "", "output path for file sinks")
	runCmd.Flags().String("sink", "", "sink format: csv, xlsx, sqlite or postgres")
	runCmd.Flags().String("dsn", "", "postgres connection string")
	runCmd.Flags().Int("workers", 0, "parallel workers (default: all CPUs)")
	runCmd.Flags().Int("max-records", 0, "stage-B per-partition row budget")
	runCmd.Flags().Float64Slice("radii", nil, "neighbor scan radii")
	runCmd.Flags().String("coords", "", "index coordinates: geographic or planar")
	runCmd.Flags().Bool("best-effort", false, "drop failed stage-B partitions instead of aborting")

	rootCmd.AddCommand(runCmd)
}

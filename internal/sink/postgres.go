package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/geomorph-labs/gauntlet/internal/db"
)

// PostgresSink bulk-loads the feature table over the COPY protocol.
type PostgresSink struct {
	Pool      db.Pool
	Schema    string
	Table     string
	BatchSize int
}

// NewPostgres returns a sink copying into schema.table through pool. An empty
// table name defaults to "building_features"; a zero batch size copies
// 50000 rows per batch.
func NewPostgres(pool db.Pool, schema, table string, batchSize int) *PostgresSink {
	if table == "" {
		table = "building_features"
	}
	if batchSize <= 0 {
		batchSize = 50000
	}
	return &PostgresSink{Pool: pool, Schema: schema, Table: table, BatchSize: batchSize}
}

// pgType maps an output column to a Postgres column type.
func pgType(col string) string {
	switch {
	case col == "build_id":
		return "TEXT"
	case col == "vertex_count", col == "geom_count", strings.HasPrefix(col, "n_count_"):
		return "BIGINT"
	default:
		return "DOUBLE PRECISION"
	}
}

func (s *PostgresSink) identifier() pgx.Identifier {
	if s.Schema != "" {
		return pgx.Identifier{s.Schema, s.Table}
	}
	return pgx.Identifier{s.Table}
}

func (s *PostgresSink) Write(ctx context.Context, header []string, rows [][]any) error {
	ident := s.identifier()

	cols := make([]string, len(header))
	for i, col := range header {
		cols[i] = fmt.Sprintf("%q %s", col, pgType(col))
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		ident.Sanitize(), strings.Join(cols, ", "))
	if _, err := s.Pool.Exec(ctx, createSQL); err != nil {
		return eris.Wrapf(err, "sink: create table %s", ident.Sanitize())
	}

	// Postgres doubles accept NaN directly, so rows need no conversion.
	// geom_count nil flattens to NULL through the pgx interface layer.
	n, err := db.CopyFromBatched(ctx, s.Pool, ident, header, rows, s.BatchSize)
	if err != nil {
		return eris.Wrap(err, "sink: copy features")
	}

	zap.L().Info("postgres written",
		zap.String("component", "sink.postgres"),
		zap.String("table", ident.Sanitize()),
		zap.Int64("rows", n))

	return nil
}

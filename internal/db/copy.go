package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/geomorph-labs/gauntlet/internal/resilience"
)

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
// This is the fastest way to insert large volumes of feature rows. The
// identifier may be schema-qualified (e.g. pgx.Identifier{"morph", "features"}).
func CopyFrom(ctx context.Context, pool Pool, table pgx.Identifier, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table.Sanitize())
	}

	return n, nil
}

// CopyFromBatched splits rows into batches of at most batchSize and copies
// each batch separately, so one oversized COPY cannot pin the whole feature
// set in server memory. A batchSize of 0 or less copies everything at once.
// Each batch is one COPY statement and rolls back whole on failure, so a
// failed batch is retried on transient database errors.
func CopyFromBatched(ctx context.Context, pool Pool, table pgx.Identifier, columns []string, rows [][]any, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = len(rows)
	}

	retry := resilience.DefaultRetryConfig()

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		var n int64
		err := resilience.Do(ctx, retry, func(ctx context.Context) error {
			var copyErr error
			n, copyErr = CopyFrom(ctx, pool, table, columns, batch)
			return copyErr
		})
		if err != nil {
			return total, eris.Wrapf(err, "db: batch starting at row %d", start)
		}
		total += n
	}

	return total, nil
}

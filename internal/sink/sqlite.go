package sink

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteSink writes the feature table into a SQLite database. The table is
// created from the header if missing and rows are inserted in one
// transaction.
type SQLiteSink struct {
	Path  string
	Table string
}

// NewSQLite returns a sink writing to the database file at path. An empty
// table name defaults to "building_features".
func NewSQLite(path, table string) *SQLiteSink {
	if table == "" {
		table = "building_features"
	}
	return &SQLiteSink{Path: path, Table: table}
}

// sqliteType maps an output column to a SQLite column type.
func sqliteType(col string) string {
	switch {
	case col == "build_id":
		return "TEXT"
	case col == "vertex_count", col == "geom_count", strings.HasPrefix(col, "n_count_"):
		return "INTEGER"
	default:
		return "REAL"
	}
}

func (s *SQLiteSink) Write(ctx context.Context, header []string, rows [][]any) error {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return eris.Wrapf(err, "sink: open sqlite %s", s.Path)
	}
	defer db.Close()

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return eris.Wrapf(err, "sink: sqlite exec %s", pragma)
		}
	}

	cols := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, col := range header {
		cols[i] = fmt.Sprintf("%q %s", col, sqliteType(col))
		placeholders[i] = "?"
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", s.Table, strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return eris.Wrapf(err, "sink: create table %s", s.Table)
	}

	quoted := make([]string, len(header))
	for i, col := range header {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		s.Table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sink: sqlite begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return eris.Wrap(err, "sink: sqlite prepare insert")
	}
	defer stmt.Close()

	for i, row := range rows {
		args := make([]any, len(row))
		for j, v := range row {
			// NaN has no SQLite representation; store NULL.
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				args[j] = nil
				continue
			}
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sink: sqlite insert row %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sink: sqlite commit")
	}

	zap.L().Info("sqlite written",
		zap.String("component", "sink.sqlite"),
		zap.String("path", s.Path),
		zap.String("table", s.Table),
		zap.Int("rows", len(rows)))

	return nil
}

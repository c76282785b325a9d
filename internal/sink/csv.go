package sink

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CSVSink writes the feature table as a CSV file. This is the default sink.
type CSVSink struct {
	Path string
}

// NewCSV returns a sink writing to path.
func NewCSV(path string) *CSVSink {
	return &CSVSink{Path: path}
}

func (s *CSVSink) Write(ctx context.Context, header []string, rows [][]any) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return eris.Wrapf(err, "sink: create csv %s", s.Path)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "sink: write csv header")
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "sink: csv write cancelled")
		}
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = cellString(v)
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "sink: write csv row %d", i)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "sink: flush csv")
	}

	zap.L().Info("csv written",
		zap.String("component", "sink.csv"),
		zap.String("path", s.Path),
		zap.Int("rows", len(rows)))

	return nil
}

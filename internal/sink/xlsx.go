package sink

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// XLSXSink writes the feature table as a single-sheet XLSX workbook.
type XLSXSink struct {
	Path  string
	Sheet string
}

// NewXLSX returns a sink writing to path. An empty sheet name defaults to
// "features".
func NewXLSX(path, sheet string) *XLSXSink {
	if sheet == "" {
		sheet = "features"
	}
	return &XLSXSink{Path: path, Sheet: sheet}
}

func (s *XLSXSink) Write(ctx context.Context, header []string, rows [][]any) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(s.Sheet)
	if err != nil {
		return eris.Wrapf(err, "sink: add xlsx sheet %s", s.Sheet)
	}

	headerRow := sheet.AddRow()
	for _, col := range header {
		headerRow.AddCell().SetString(col)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "sink: xlsx write cancelled")
		}
		r := sheet.AddRow()
		for _, v := range row {
			cell := r.AddCell()
			switch t := v.(type) {
			case nil:
				cell.SetString("")
			case string:
				cell.SetString(t)
			case int:
				cell.SetInt(t)
			case float64:
				if math.IsNaN(t) {
					cell.SetString("")
				} else {
					cell.SetFloat(t)
				}
			default:
				cell.SetString(cellString(v))
			}
		}
	}

	if err := f.Save(s.Path); err != nil {
		return eris.Wrapf(err, "sink: save xlsx %s", s.Path)
	}

	zap.L().Info("xlsx written",
		zap.String("component", "sink.xlsx"),
		zap.String("path", s.Path),
		zap.Int("rows", len(rows)))

	return nil
}

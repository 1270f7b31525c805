package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// TableExporter provides access to the tables included in an export.
type TableExporter interface {
	GetTableNames(ctx context.Context) ([]string, error)
	GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error)
}

// Exporter dumps store tables into a workbook, one sheet per table.
type Exporter struct {
	source    TableExporter
	newWriter func() ExcelWriter
	logger    *zerolog.Logger
}

func NewExporter(source TableExporter, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{
		source:    source,
		newWriter: func() ExcelWriter { return NewExcelizeWriter() },
		logger:    logger,
	}
}

// Export writes the workbook to out. A table that cannot be read aborts the
// whole export.
func (e *Exporter) Export(ctx context.Context, out io.Writer) error {
	tables, err := e.source.GetTableNames(ctx)
	if err != nil {
		return fmt.Errorf("get table names: %w", err)
	}

	excel := e.newWriter()
	defer func() { _ = excel.Close() }()

	for _, table := range tables {
		data, columns, err := e.source.GetTableData(ctx, table)
		if err != nil {
			return fmt.Errorf("get %s data: %w", table, err)
		}

		if err := excel.AddSheet(table); err != nil {
			return err
		}
		if err := excel.WriteHeader(columns); err != nil {
			return fmt.Errorf("write %s header: %w", table, err)
		}

		for _, row := range data {
			values := make([]interface{}, len(columns))
			for i, col := range columns {
				values[i] = cellValue(row[col])
			}
			if err := excel.WriteRow(values); err != nil {
				return fmt.Errorf("write %s row: %w", table, err)
			}
		}

		e.logger.Debug().Str("table", table).Int("rows", len(data)).Msg("exported table")
	}

	if err := excel.Save(out); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// sqlite returns TEXT columns as []byte through interface{} scans.
func cellValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Filename returns the download name for an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("bookings_%s.xlsx", t.Format("20060102_150405"))
}

package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubSource struct {
	tables  []string
	columns []string
	rows    []map[string]interface{}
	err     error
}

func (s *stubSource) GetTableNames(ctx context.Context) ([]string, error) {
	return s.tables, nil
}

func (s *stubSource) GetTableData(ctx context.Context, table string) ([]map[string]interface{}, []string, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.rows, s.columns, nil
}

func TestExporter_Export(t *testing.T) {
	src := &stubSource{
		tables:  []string{"bookings"},
		columns: []string{"id", "name", "service", "date", "time", "duration"},
		rows: []map[string]interface{}{
			{"id": int64(1), "name": []byte("Ada"), "service": "Videography", "date": "2024-06-01", "time": "10:00", "duration": int64(60)},
			{"id": int64(2), "name": "Bo", "service": "Photography", "date": "2024-06-02", "time": "09:30", "duration": int64(30)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(src, nil).Export(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"bookings"}, f.GetSheetList())

	rows, err := f.GetRows("bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, src.columns, rows[0])
	assert.Equal(t, []string{"1", "Ada", "Videography", "2024-06-01", "10:00", "60"}, rows[1])
	assert.Equal(t, "Bo", rows[2][1])
}

func TestExporter_SourceError(t *testing.T) {
	src := &stubSource{tables: []string{"bookings"}, err: errors.New("no such table")}

	var buf bytes.Buffer
	err := NewExporter(src, nil).Export(context.Background(), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get bookings data")
	assert.Zero(t, buf.Len())
}

func TestExcelizeWriter_RequiresSheet(t *testing.T) {
	w := NewExcelizeWriter()
	defer w.Close()

	assert.Error(t, w.WriteHeader([]string{"id"}))
	assert.Error(t, w.WriteRow([]interface{}{1}))
}

func TestExcelizeWriter_LongSheetName(t *testing.T) {
	w := NewExcelizeWriter()
	defer w.Close()

	require.NoError(t, w.AddSheet("bookings_with_a_very_long_name_over_limit"))
	require.NoError(t, w.AddSheet("second"))
	assert.Equal(t, []string{"bookings_with_a_very_long_name_", "second"}, w.file.GetSheetList())
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "bookings_20240601_090507.xlsx", Filename(at))
}

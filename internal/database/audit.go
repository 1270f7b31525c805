package database

import (
	"context"
	"fmt"
	"strings"
)

// auditTables maps each exported table to its column list and row order.
var auditTables = map[string]struct {
	columns string
	orderBy string
}{
	"bookings": {columns: bookingColumns, orderBy: "date, time, id"},
}

// AuditTableNames lists the tables exported in audit reports.
var AuditTableNames = []string{"bookings"}

func (db *DB) GetTableNames(ctx context.Context) ([]string, error) {
	return AuditTableNames, nil
}

// GetTableData returns every row of an exported table keyed by column name,
// along with the column order.
func (db *DB) GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error) {
	table, ok := auditTables[tableName]
	if !ok {
		return nil, nil, fmt.Errorf("table %s is not exported", tableName)
	}
	columns := strings.Split(table.columns, ", ")

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", table.columns, tableName, table.orderBy))
	if err != nil {
		return nil, nil, fmt.Errorf("dump %s: %w", tableName, err)
	}
	defer rows.Close()

	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan %s row: %w", tableName, err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate %s: %w", tableName, err)
	}
	return result, columns, nil
}

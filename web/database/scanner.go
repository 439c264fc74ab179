package database

import (
	"context"
	"database/sql"

	"github.com/zeromicro/go-zero/core/logx"
)

// Scanner provides utilities for scanning database results
type Scanner struct{}

// NewScanner creates a new result scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanRows scans SQL rows into a slice of maps.
// An empty result is an empty, non-nil slice.
func (s *Scanner) ScanRows(ctx context.Context, rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0)

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// Convert []byte to string for JSON serialization
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).Debugf("query returned %d rows", len(results))
	return results, nil
}

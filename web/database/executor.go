package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// Executor provides database execution capabilities
type Executor struct {
	db *sql.DB
}

// NewExecutor creates a new database executor
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Query executes a SELECT query and returns rows
func (e *Executor) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query, args...)
	logx.WithContext(ctx).WithDuration(time.Since(start)).Debugw("executing query",
		logx.Field("sql", query),
		logx.Field("args", args),
	)
	return rows, err
}

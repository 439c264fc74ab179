package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"golang.org/x/sync/errgroup"
)

// introspectionLimit bounds the concurrent column queries of one Tables call.
const introspectionLimit = 4

type (
	Database interface {
		Tables(ctx context.Context, tables ...string) ([]Table, error)
	}

	Table struct {
		Name    string   `json:"name"`
		Columns []Column `json:"columns"`
	}

	Column struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		Nullable   bool   `json:"nullable"`
		PrimaryKey bool   `json:"primaryKey"`
	}
)

type (
	MySQL struct {
		db *sql.DB
	}

	Postgres struct {
		db *sql.DB
	}

	SQLite struct {
		db *sql.DB
	}
)

// NewMySQL creates a new MySQL database instance
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

// NewPostgres creates a new PostgreSQL database instance
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// NewSQLite creates a new SQLite database instance
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// NewDatabase returns the introspector matching the driver.
func NewDatabase(driver string, db *sql.DB) (Database, error) {
	switch driver {
	case "mysql":
		return NewMySQL(db), nil
	case "postgres", "pgx":
		return NewPostgres(db), nil
	case "sqlite3", "sqlite":
		return NewSQLite(db), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Tables loads columns from `information_schema.columns` of the current database.
func (d *MySQL) Tables(ctx context.Context, tables ...string) ([]Table, error) {
	var dbName string
	if err := d.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return nil, fmt.Errorf("failed to retrieve database name: %w", err)
	}

	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	return loadTables(tables, func(table string) ([]Column, error) {
		rows, err := d.db.QueryContext(ctx, query, dbName, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var columns []Column
		for rows.Next() {
			var col Column
			var isNullable, key string
			if err := rows.Scan(&col.Name, &col.Type, &isNullable, &key); err != nil {
				return nil, err
			}
			col.Nullable = isNullable == "YES"
			col.PrimaryKey = key == "PRI"
			columns = append(columns, col)
		}
		return columns, rows.Err()
	})
}

// Tables loads columns from `information_schema.columns` of the current schema.
func (d *Postgres) Tables(ctx context.Context, tables ...string) ([]Table, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage k
					ON k.constraint_name = tc.constraint_name
					AND k.table_schema = tc.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND k.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	return loadTables(tables, func(table string) ([]Column, error) {
		rows, err := d.db.QueryContext(ctx, query, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var columns []Column
		for rows.Next() {
			var col Column
			var isNullable string
			if err := rows.Scan(&col.Name, &col.Type, &isNullable, &col.PrimaryKey); err != nil {
				return nil, err
			}
			col.Nullable = isNullable == "YES"
			columns = append(columns, col)
		}
		return columns, rows.Err()
	})
}

// Tables loads columns from `pragma_table_info`.
func (d *SQLite) Tables(ctx context.Context, tables ...string) ([]Table, error) {
	query := `SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`

	return loadTables(tables, func(table string) ([]Column, error) {
		rows, err := d.db.QueryContext(ctx, query, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var columns []Column
		for rows.Next() {
			var col Column
			var notNull, pk int
			if err := rows.Scan(&col.Name, &col.Type, &notNull, &pk); err != nil {
				return nil, err
			}
			col.Nullable = notNull == 0
			col.PrimaryKey = pk > 0
			columns = append(columns, col)
		}
		return columns, rows.Err()
	})
}

func loadTables(tables []string, columns func(table string) ([]Column, error)) ([]Table, error) {
	result := make([]Table, len(tables))

	var g errgroup.Group
	g.SetLimit(introspectionLimit)
	for i, name := range tables {
		i, name := i, name
		g.Go(func() error {
			cols, err := columns(name)
			if err != nil {
				return fmt.Errorf("failed to get info for table %s: %w", name, err)
			}
			result[i] = Table{Name: name, Columns: cols}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ParseDSN splits "<driver>://<dsn>" into the database/sql driver name and
// the DSN handed to that driver. PostgreSQL keeps its URL form.
//
//	mysql://      go-sql-driver/mysql
//	postgres://   lib/pq
//	pgx://        jackc/pgx
//	sqlite3://    mattn/go-sqlite3
//	sqlite://     modernc.org/sqlite
func ParseDSN(dsn string) (driver, uri string, err error) {
	driver, uri, ok := strings.Cut(dsn, "://")
	if !ok || driver == "" {
		return "", "", fmt.Errorf("invalid dsn %q, expected <driver>://<dsn>", dsn)
	}

	switch driver {
	case "mysql", "sqlite3", "sqlite":
		return driver, uri, nil
	case "postgres", "postgresql":
		return "postgres", dsn, nil
	case "pgx":
		return "pgx", "postgres://" + uri, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// Flavor returns the SQL flavor used to render queries for the driver.
func Flavor(driver string) sqlbuilder.Flavor {
	switch driver {
	case "postgres", "pgx":
		return sqlbuilder.PostgreSQL
	case "sqlite3", "sqlite":
		return sqlbuilder.SQLite
	default:
		return sqlbuilder.MySQL
	}
}

// OpenDB opens the database named by a "<driver>://<dsn>" string.
// The driver must be registered by the caller.
func OpenDB(dsn string) (*sql.DB, string, error) {
	driver, uri, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, uri)
	if err != nil {
		return nil, "", err
	}
	return db, driver, nil
}

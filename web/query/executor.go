package query

import (
	"context"
	"fmt"
	"net/url"

	"github.com/huandu/go-sqlbuilder"
	"github.com/xcono/relfilter/filter"
	"github.com/xcono/relfilter/schema"
	"github.com/xcono/relfilter/web/database"
	"github.com/zeromicro/go-zero/core/logx"
)

// Executor compiles filters and runs the resulting query
type Executor struct {
	db       *database.Executor
	scanner  *database.Scanner
	parser   *filter.Parser
	compiler *filter.Compiler
	flavor   sqlbuilder.Flavor
}

// NewExecutor creates a new query executor
func NewExecutor(db *database.Executor, s schema.Descriptor, flavor sqlbuilder.Flavor) *Executor {
	return &Executor{
		db:       db,
		scanner:  database.NewScanner(),
		parser:   filter.NewParser(s, nil),
		compiler: filter.NewCompiler(s),
		flavor:   flavor,
	}
}

// Build parses the filter parameters of entity and renders the query.
// Nothing is executed.
func (e *Executor) Build(entity string, params url.Values) (string, []interface{}, error) {
	root, err := e.parser.ParseValues(entity, params)
	if err != nil {
		return "", nil, err
	}
	logx.Debugf("filters on %s:\n%s", entity, root)

	sb, err := e.compiler.Select(root)
	if err != nil {
		return "", nil, err
	}

	sql, args := sb.BuildWithFlavor(e.flavor)
	return sql, args, nil
}

// ExecuteSelect executes a filtered SELECT query.
// Filter errors are returned before anything is executed.
func (e *Executor) ExecuteSelect(ctx context.Context, entity string, params url.Values) ([]map[string]interface{}, error) {
	sql, args, err := e.Build(entity, params)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", entity, err)
	}
	defer rows.Close()

	return e.scanner.ScanRows(ctx, rows)
}

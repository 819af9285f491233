// Package database implements the database block: a parameterized SQL
// statement against a PostgreSQL database.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // postgres driver

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Config defines the configuration for database nodes.
type Config struct {
	DSN   string `json:"dsn"`
	Query string `json:"query"`
	Args  []any  `json:"args,omitempty"`
}

// Handler executes database nodes.
type Handler struct {
	nodeID string
	config Config
}

// NewHandler creates a database handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	dsn, ok := node.Config["dsn"].(string)
	if !ok || dsn == "" {
		return nil, errors.New("missing required field 'dsn'")
	}

	query, ok := node.Config["query"].(string)
	if !ok || query == "" {
		return nil, errors.New("missing required field 'query'")
	}

	config := Config{DSN: dsn, Query: query}

	if args, ok := node.Config["args"].([]any); ok {
		config.Args = args
	}

	return &Handler{nodeID: node.ID, config: config}, nil
}

// Execute runs the statement. SELECT-like queries return rows as a list of
// column maps; other statements return the affected row count. String
// arguments are templated against the execution context.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	db, err := sql.Open("postgres", h.config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	defer func() {
		_ = db.Close()
	}()

	data := blocks.TemplateData(execCtx)

	args := make([]any, 0, len(h.config.Args))

	for _, arg := range h.config.Args {
		if text, ok := arg.(string); ok {
			rendered, err := template.RenderWithContext(text, data)
			if err != nil {
				return nil, fmt.Errorf("failed to render query argument: %w", err)
			}

			args = append(args, rendered)

			continue
		}

		args = append(args, arg)
	}

	if isQuery(h.config.Query) {
		return h.queryRows(ctx, db, args)
	}

	result, err := db.ExecContext(ctx, h.config.Query, args...)
	if err != nil {
		return nil, fmt.Errorf("statement failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}

	return map[string]any{"rows_affected": affected}, nil
}

func (h *Handler) queryRows(ctx context.Context, db *sql.DB, args []any) (any, error) {
	rows, err := db.QueryContext(ctx, h.config.Query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	results := make([]map[string]any, 0)

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))

		for i, column := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[column] = string(raw)

				continue
			}

			row[column] = values[i]
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return map[string]any{
		"rows":  results,
		"count": len(results),
	}, nil
}

func isQuery(statement string) bool {
	head := strings.ToUpper(strings.TrimSpace(statement))

	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH")
}

// Package store defines the relational store surface the pipelines run
// against. Table shapes are decided at runtime from uploaded data, so the
// interface is built around a generic create-or-replace operation
// parameterized by a column-type list.
package store

import (
	"context"
	"errors"

	"github.com/sheetqa/sheetqa/internal/inference"
)

// ErrNotFound is returned when a named table does not exist.
var ErrNotFound = errors.New("table not found")

// TableDef describes one materialized table.
type TableDef struct {
	Name    string
	Columns []inference.Column
}

// TableInfo is the introspection view of a live table.
type TableInfo struct {
	Name     string
	Columns  []ColumnInfo
	RowCount int64
}

// ColumnInfo is a column as reported by the store's own catalog.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is a bounded, read-only query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Store is the transactional relational store the service persists tables
// in. Implementations must make ReplaceTable atomic per table: concurrent
// readers see either the old table or the fully loaded new one.
type Store interface {
	// ReplaceTable drops any existing table of the same name and creates
	// and bulk-loads a new one in a single transaction.
	ReplaceTable(ctx context.Context, def TableDef, rows [][]any) error

	// ListTables enumerates all current base tables.
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable reports a table's columns and row count.
	DescribeTable(ctx context.Context, name string) (TableInfo, error)

	// SampleRows returns up to limit rows of a table.
	SampleRows(ctx context.Context, name string, limit int) (Result, error)

	// Query executes a read-only statement. Callers are responsible for
	// gating the statement before it reaches this method.
	Query(ctx context.Context, sqlText string) (Result, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

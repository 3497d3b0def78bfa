// Package sqlstore implements the relational store on database/sql. The
// default driver is an embedded DuckDB database; a Postgres DSN works with
// the same SQL surface.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sheetqa/sheetqa/internal/store"
)

const insertBatchSize = 500

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type Store struct {
	db *sql.DB
}

// Open connects and pings the store. DuckDB accepts an empty DSN for an
// in-memory database or a file path for a persistent one.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := strings.TrimSpace(cfg.Driver)
	switch driver {
	case "duckdb", "pgx":
	case "":
		driver = "duckdb"
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle. Used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ReplaceTable(ctx context.Context, def store.TableDef, rows [][]any) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("table name is required")
	}
	if len(def.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", def.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace of %q: %w", def.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(def.Name)); err != nil {
		return fmt.Errorf("drop table %q: %w", def.Name, err)
	}

	columnDefs := make([]string, 0, len(def.Columns))
	for _, col := range def.Columns {
		columnDefs = append(columnDefs, quoteIdent(col.Name)+" "+col.SQLType())
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(def.Name), strings.Join(columnDefs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %q: %w", def.Name, err)
	}

	if len(rows) > 0 {
		if err := bulkInsert(ctx, tx, def, rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace of %q: %w", def.Name, err)
	}
	return nil
}

func bulkInsert(ctx context.Context, tx *sql.Tx, def store.TableDef, rows [][]any) error {
	columnNames := make([]string, 0, len(def.Columns))
	for _, col := range def.Columns {
		columnNames = append(columnNames, quoteIdent(col.Name))
	}

	for offset := 0; offset < len(rows); offset += insertBatchSize {
		end := offset + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[offset:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*len(def.Columns))
		arg := 1
		for _, row := range batch {
			cells := make([]string, len(def.Columns))
			for i := range def.Columns {
				cells[i] = fmt.Sprintf("$%d", arg)
				arg++
				if i < len(row) {
					args = append(args, row[i])
				} else {
					args = append(args, nil)
				}
			}
			placeholders = append(placeholders, "("+strings.Join(cells, ", ")+")")
		}

		insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			quoteIdent(def.Name), strings.Join(columnNames, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return fmt.Errorf("load rows into %q: %w", def.Name, err)
		}
	}
	return nil
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_type = 'BASE TABLE'
		   AND table_schema NOT IN ('information_schema', 'pg_catalog')
		 ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

func (s *Store) DescribeTable(ctx context.Context, name string) (store.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_name = $1 ORDER BY ordinal_position`, name)
	if err != nil {
		return store.TableInfo{}, fmt.Errorf("describe table %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	info := store.TableInfo{Name: name}
	for rows.Next() {
		var col store.ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return store.TableInfo{}, fmt.Errorf("scan column of %q: %w", name, err)
		}
		info.Columns = append(info.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return store.TableInfo{}, fmt.Errorf("iterate columns of %q: %w", name, err)
	}
	if len(info.Columns) == 0 {
		return store.TableInfo{}, store.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+quoteIdent(name))
	if err := row.Scan(&info.RowCount); err != nil {
		return store.TableInfo{}, fmt.Errorf("count rows of %q: %w", name, err)
	}
	return info, nil
}

func (s *Store) SampleRows(ctx context.Context, name string, limit int) (store.Result, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(name), limit))
}

func (s *Store) Query(ctx context.Context, sqlText string) (store.Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return store.Result{}, fmt.Errorf("sql is required")
	}

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return store.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return store.Result{}, fmt.Errorf("query columns: %w", err)
	}

	result := store.Result{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return store.Result{}, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return store.Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

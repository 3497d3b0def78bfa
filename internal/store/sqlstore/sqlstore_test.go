package sqlstore

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/sheetqa/sheetqa/internal/inference"
	"github.com/sheetqa/sheetqa/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock setup: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestReplaceTableRunsInOneTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "orders__sheet_1"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "orders__sheet_1" \("id" BIGINT, "label" VARCHAR\(255\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "orders__sheet_1" \("id", "label"\) VALUES \(\$1, \$2\), \(\$3, \$4\)`).
		WithArgs(int64(1), "a", int64(2), "b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	def := store.TableDef{
		Name: "orders__sheet_1",
		Columns: []inference.Column{
			{Name: "id", Type: inference.TypeInteger},
			{Name: "label", Type: inference.TypeText, MaxLength: 255},
		},
	}
	rows := [][]any{{int64(1), "a"}, {int64(2), "b"}}
	if err := s.ReplaceTable(context.Background(), def, rows); err != nil {
		t.Fatalf("replace table: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceTableRollsBackOnLoadError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "t"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "t"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "t"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	def := store.TableDef{Name: "t", Columns: []inference.Column{{Name: "x", Type: inference.TypeInteger}}}
	err := s.ReplaceTable(context.Background(), def, [][]any{{int64(1)}})
	if err == nil {
		t.Fatal("expected load error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryNormalizesByteSlices(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM t`).WillReturnRows(
		sqlmock.NewRows([]string{"name", "n"}).AddRow([]byte("alice"), int64(3)),
	)

	result, err := s.Query(context.Background(), "SELECT * FROM t")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if got, ok := result.Rows[0][0].(string); !ok || got != "alice" {
		t.Fatalf("expected []byte normalized to string, got %#v", result.Rows[0][0])
	}
}

func TestDescribeTableNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`information_schema.columns`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	_, err := s.DescribeTable(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListTables(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`information_schema.tables`).WillReturnRows(
		sqlmock.NewRows([]string{"table_name"}).AddRow("a__one").AddRow("b__two"),
	)

	names, err := s.ListTables(context.Background())
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(names) != 2 || names[0] != "a__one" {
		t.Fatalf("names = %v", names)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "sybase"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

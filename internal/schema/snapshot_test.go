package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/sheetqa/sheetqa/internal/store"
)

type fakeStore struct {
	tables      []string
	describeErr map[string]error
	sampleErr   map[string]error
}

func (f *fakeStore) ReplaceTable(context.Context, store.TableDef, [][]any) error { return nil }
func (f *fakeStore) Ping(context.Context) error                                  { return nil }
func (f *fakeStore) Query(context.Context, string) (store.Result, error)         { return store.Result{}, nil }

func (f *fakeStore) ListTables(context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeStore) DescribeTable(_ context.Context, name string) (store.TableInfo, error) {
	if err := f.describeErr[name]; err != nil {
		return store.TableInfo{}, err
	}
	return store.TableInfo{
		Name:     name,
		Columns:  []store.ColumnInfo{{Name: "id", Type: "BIGINT"}},
		RowCount: 2,
	}, nil
}

func (f *fakeStore) SampleRows(_ context.Context, name string, limit int) (store.Result, error) {
	if err := f.sampleErr[name]; err != nil {
		return store.Result{}, err
	}
	if limit <= 0 {
		limit = 1
	}
	return store.Result{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}, nil
}

func TestBuildSnapshot(t *testing.T) {
	snapshot, err := Build(context.Background(), &fakeStore{tables: []string{"a__one", "b__two"}}, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("snapshot size = %d", len(snapshot))
	}
	entry := snapshot["a__one"]
	if len(entry.Columns) != 1 || entry.Columns[0].Name != "id" {
		t.Fatalf("columns = %v", entry.Columns)
	}
	if len(entry.Samples) != 1 {
		t.Fatalf("samples = %v", entry.Samples)
	}
}

func TestBuildToleratesPerTableFailure(t *testing.T) {
	fake := &fakeStore{
		tables:      []string{"good", "broken"},
		describeErr: map[string]error{"broken": errors.New("table vanished")},
	}
	snapshot, err := Build(context.Background(), fake, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if snapshot["broken"].Error == "" {
		t.Fatal("broken table should record an error")
	}
	if snapshot["good"].Error != "" {
		t.Fatalf("good table should succeed, got error %q", snapshot["good"].Error)
	}
}

func TestBuildRecordsSampleFailure(t *testing.T) {
	fake := &fakeStore{
		tables:    []string{"t"},
		sampleErr: map[string]error{"t": errors.New("read denied")},
	}
	snapshot, err := Build(context.Background(), fake, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	entry := snapshot["t"]
	if entry.Error == "" || len(entry.Columns) != 1 {
		t.Fatalf("entry = %+v", entry)
	}
}

// Package schema builds the per-question description of the store that is
// embedded into oracle prompts.
package schema

import (
	"context"

	"github.com/sheetqa/sheetqa/internal/jsonsafe"
	"github.com/sheetqa/sheetqa/internal/store"
)

// TableSchema is the LLM-consumable view of one table. A table that failed
// mid-enumeration keeps its entry with Error set rather than aborting the
// snapshot.
type TableSchema struct {
	Columns []store.ColumnInfo `json:"columns"`
	Samples []map[string]any   `json:"samples"`
	Error   string             `json:"error,omitempty"`
}

// Snapshot maps table name to its schema. It is rebuilt on every question;
// nothing here is cached across requests.
type Snapshot map[string]TableSchema

// Build enumerates all base tables and samples up to sampleRows rows from
// each. Read-only; never mutates the store.
func Build(ctx context.Context, st store.Store, sampleRows int) (Snapshot, error) {
	names, err := st.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make(Snapshot, len(names))
	for _, name := range names {
		info, err := st.DescribeTable(ctx, name)
		if err != nil {
			snapshot[name] = TableSchema{Error: err.Error()}
			continue
		}
		entry := TableSchema{Columns: info.Columns}

		sample, err := st.SampleRows(ctx, name, sampleRows)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Samples = jsonsafe.Rows(sample.Columns, sample.Rows)
		}
		snapshot[name] = entry
	}
	return snapshot, nil
}

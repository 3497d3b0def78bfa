package api

import (
	"net/http"

	"github.com/sheetqa/sheetqa/internal/store"
)

type tableSummary struct {
	Name     string             `json:"name"`
	Columns  []store.ColumnInfo `json:"columns,omitempty"`
	RowCount int64              `json:"rowCount"`
	Error    string             `json:"error,omitempty"`
}

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Store == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store is not configured", true, nil)
		return
	}

	names, err := deps.Store.ListTables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "STORE_ERROR", err.Error(), true, nil)
		return
	}

	summaries := make([]tableSummary, 0, len(names))
	for _, name := range names {
		info, err := deps.Store.DescribeTable(r.Context(), name)
		if err != nil {
			summaries = append(summaries, tableSummary{Name: name, Error: err.Error()})
			continue
		}
		summaries = append(summaries, tableSummary{Name: name, Columns: info.Columns, RowCount: info.RowCount})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": summaries})
}

// Package ingest materializes uploaded workbooks as typed relational
// tables. Ingestion is sheet-isolated: one sheet failing to materialize is
// recorded in the report without aborting its siblings.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sheetqa/sheetqa/internal/identifier"
	"github.com/sheetqa/sheetqa/internal/inference"
	"github.com/sheetqa/sheetqa/internal/jsonsafe"
	"github.com/sheetqa/sheetqa/internal/observability"
	"github.com/sheetqa/sheetqa/internal/storage"
	"github.com/sheetqa/sheetqa/internal/store"
	"github.com/sheetqa/sheetqa/internal/workbook"
)

const sampleRowCount = 5

// ErrStoreUnavailable marks an upload rejected because no reachable store
// was configured.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrBadWorkbook marks bytes that could not be parsed as a spreadsheet.
var ErrBadWorkbook = errors.New("unreadable workbook")

// TableReport describes one materialized table, or the failure that kept a
// sheet from materializing.
type TableReport struct {
	Columns  []string         `json:"columns,omitempty"`
	RowCount int              `json:"rowCount"`
	Samples  []map[string]any `json:"samples,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Report maps derived table name to its per-sheet outcome.
type Report map[string]TableReport

type Service struct {
	Store  store.Store
	Logger *slog.Logger

	// Archive keeps the raw upload bytes in object storage when configured.
	// Archival is best-effort and never fails an ingestion.
	Archive storage.ObjectStore
}

// Ingest parses the workbook and create-or-replaces one table per non-empty
// sheet. It fails outright only when the store is unreachable up front or
// the bytes are not a spreadsheet at all.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (Report, error) {
	if s.Store == nil {
		return nil, ErrStoreUnavailable
	}
	if err := s.Store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	wb, err := workbook.Parse(filename, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadWorkbook, filename, err)
	}

	s.archive(ctx, filename, data)

	start := time.Now()
	report := make(Report, len(wb.Sheets))
	materialized, failed := 0, 0
	for _, sheet := range wb.Sheets {
		tableName := identifier.TableName(filename, sheet.Name)
		entry, err := s.materializeSheet(ctx, tableName, sheet)
		if err != nil {
			failed++
			s.logger().WarnContext(ctx, "sheet ingestion failed",
				slog.String("table", tableName), slog.Any("error", err))
			report[tableName] = TableReport{Error: err.Error()}
			continue
		}
		materialized++
		report[tableName] = entry
	}
	observability.ObserveUpload(materialized, failed, time.Since(start))
	return report, nil
}

func (s *Service) materializeSheet(ctx context.Context, tableName string, sheet workbook.Sheet) (TableReport, error) {
	columnNames := identifier.SanitizeColumns(sheet.Header)

	columns := make([]inference.Column, len(columnNames))
	columnValues := make([][]any, len(columnNames))
	for i, name := range columnNames {
		raw := make([]string, len(sheet.Rows))
		for r, row := range sheet.Rows {
			raw[r] = row[i]
		}
		values := cleanColumn(raw)
		columnValues[i] = values
		columns[i] = inference.Infer(name, values)
	}

	rows := make([][]any, len(sheet.Rows))
	for r := range sheet.Rows {
		row := make([]any, len(columns))
		for c := range columns {
			row[c] = columnValues[c][r]
		}
		rows[r] = row
	}

	def := store.TableDef{Name: tableName, Columns: columns}
	if err := s.Store.ReplaceTable(ctx, def, rows); err != nil {
		return TableReport{}, err
	}

	sampleEnd := len(rows)
	if sampleEnd > sampleRowCount {
		sampleEnd = sampleRowCount
	}
	return TableReport{
		Columns:  columnNames,
		RowCount: len(rows),
		Samples:  jsonsafe.Rows(columnNames, rows[:sampleEnd]),
	}, nil
}

// cleanColumn trims the raw cells and coerces the whole column to its best
// uniform representation: timestamps first, then numbers, then booleans,
// falling back to trimmed text. Coercion is all-or-nothing; missing values
// stay nil throughout.
func cleanColumn(raw []string) []any {
	trimmed := make([]string, len(raw))
	missing := make([]bool, len(raw))
	allMissing := true
	for i, cell := range raw {
		value := strings.TrimSpace(cell)
		if value == "" || isInfinity(value) {
			missing[i] = true
			continue
		}
		trimmed[i] = value
		allMissing = false
	}

	values := make([]any, len(raw))
	if allMissing {
		return values
	}

	if coerced, ok := coerceTimestamps(trimmed, missing); ok {
		return coerced
	}
	if coerced, ok := coerceNumbers(trimmed, missing); ok {
		return coerced
	}
	if coerced, ok := coerceBooleans(trimmed, missing); ok {
		return coerced
	}

	for i := range trimmed {
		if !missing[i] {
			values[i] = trimmed[i]
		}
	}
	return values
}

func coerceTimestamps(trimmed []string, missing []bool) ([]any, bool) {
	values := make([]any, len(trimmed))
	for i, cell := range trimmed {
		if missing[i] {
			continue
		}
		ts, ok := inference.ParseTimestamp(cell)
		if !ok {
			return nil, false
		}
		values[i] = ts
	}
	return values, true
}

func coerceNumbers(trimmed []string, missing []bool) ([]any, bool) {
	integral := true
	for i, cell := range trimmed {
		if missing[i] {
			continue
		}
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			integral = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return nil, false
		}
	}

	values := make([]any, len(trimmed))
	for i, cell := range trimmed {
		if missing[i] {
			continue
		}
		if integral {
			n, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return nil, false
			}
			values[i] = n
		} else {
			f, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, false
			}
			values[i] = f
		}
	}
	return values, true
}

func coerceBooleans(trimmed []string, missing []bool) ([]any, bool) {
	values := make([]any, len(trimmed))
	for i, cell := range trimmed {
		if missing[i] {
			continue
		}
		b, ok := inference.ParseBool(cell)
		if !ok {
			return nil, false
		}
		values[i] = b
	}
	return values, true
}

func isInfinity(value string) bool {
	switch strings.ToLower(value) {
	case "inf", "+inf", "-inf", "infinity", "+infinity", "-infinity":
		return true
	}
	return false
}

func (s *Service) archive(ctx context.Context, filename string, data []byte) {
	if s.Archive == nil {
		return
	}
	key := storage.BuildUploadPath(filename, time.Now())
	if _, err := s.Archive.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: "application/octet-stream",
	}); err != nil {
		s.logger().WarnContext(ctx, "upload archival failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Package workbook parses uploaded spreadsheet bytes into raw sheet grids.
package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one untyped grid from a workbook. Header holds the first row's
// raw labels; Rows hold the remaining cells as strings, missing cells empty.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Workbook is the transient parse result of one upload.
type Workbook struct {
	Sheets []Sheet
}

// Parse decodes data according to the filename extension. XLSX/XLSM files
// may contain multiple sheets; a CSV file becomes a single sheet named after
// the file stem. Sheets without any data rows are dropped.
func Parse(filename string, data []byte) (Workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(filename, data)
	case ".xlsx", ".xlsm", "":
		return parseExcel(data)
	default:
		return parseExcel(data)
	}
}

func parseExcel(data []byte) (Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Workbook{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var wb Workbook
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return Workbook{}, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		sheet, ok := buildSheet(sheetName, rows)
		if !ok {
			continue
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func parseCSV(filename string, data []byte) (Workbook, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Workbook{}, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, record)
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	sheet, ok := buildSheet(stem, records)
	if !ok {
		return Workbook{}, nil
	}
	return Workbook{Sheets: []Sheet{sheet}}, nil
}

// buildSheet squares the grid against the widest row and splits off the
// header. A sheet with no header row or no data rows is skipped.
func buildSheet(name string, rows [][]string) (Sheet, bool) {
	if len(rows) < 2 {
		return Sheet{}, false
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return Sheet{}, false
	}

	squared := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		squared[i] = padded
	}

	hasData := false
	for _, row := range squared[1:] {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				hasData = true
				break
			}
		}
		if hasData {
			break
		}
	}
	if !hasData {
		return Sheet{}, false
	}

	return Sheet{Name: name, Header: squared[0], Rows: squared[1:]}, true
}

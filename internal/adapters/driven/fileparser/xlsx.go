package fileparser

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads every sheet; the first row of each sheet is its header.
// The sheet name is recorded as metadata.sheet unless a column sets it.
func decodeXLSX(_ string, content []byte) ([]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var raws []any
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		for _, row := range rows[1:] {
			if isBlankRow(row) {
				continue
			}
			raw := rowToRaw(header, row)
			metadata := raw["metadata"].(map[string]any)
			if _, ok := metadata["sheet"]; !ok {
				metadata["sheet"] = sheet
			}
			raws = append(raws, raw)
		}
	}
	return raws, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

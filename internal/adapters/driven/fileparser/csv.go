package fileparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// decodeCSV reads a header row followed by one record per row.
func decodeCSV(_ string, content []byte) ([]any, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var raws []any
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		raws = append(raws, rowToRaw(header, row))
	}
	return raws, nil
}

package fileparser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errEmptyFile = errors.New("file is empty")

// decodeJSON accepts a top-level array of records or a single record.
func decodeJSON(_ string, content []byte) ([]any, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, errEmptyFile
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if list, ok := value.([]any); ok {
		return list, nil
	}
	return []any{value}, nil
}

// decodeJSONLines decodes one record per non-blank line. A line that is
// not valid JSON is passed through as a string so only that record is
// rejected downstream.
func decodeJSONLines(_ string, content []byte) ([]any, error) {
	var raws []any
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var value any
		if err := json.Unmarshal(line, &value); err != nil {
			raws = append(raws, string(line))
			continue
		}
		raws = append(raws, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	return raws, nil
}

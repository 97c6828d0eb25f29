package fileparser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// decodeYAML accepts a sequence of records, a single record, or a stream
// of documents. Values are normalised to their JSON form.
func decodeYAML(_ string, content []byte) ([]any, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))

	var raws []any
	for {
		var doc any
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
		if doc == nil {
			continue
		}
		normalised, err := toJSONValue(doc)
		if err != nil {
			return nil, err
		}
		if list, ok := normalised.([]any); ok {
			raws = append(raws, list...)
		} else {
			raws = append(raws, normalised)
		}
	}
	if len(raws) == 0 {
		return nil, errEmptyFile
	}
	return raws, nil
}

// toJSONValue round-trips a YAML value through JSON so numbers become
// float64 and maps become map[string]any, matching decoded JSON uploads.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, fmt.Errorf("normalising yaml: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("normalising yaml: %w", err)
	}
	return out, nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = stringKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stringKeys(val)
		}
		return out
	default:
		return v
	}
}

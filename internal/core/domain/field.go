package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Datapoint parts an indexed field path may start with.
const (
	fieldRootData     = "data"
	fieldRootTarget   = "target"
	fieldRootMetadata = "metadata"
)

// ResolveField returns the value at a dotted field path.
//
// A leading "data", "target" or "metadata" segment selects that part of the
// datapoint; any other path is resolved inside Data. Nested objects are
// walked one segment at a time. A missing or null value returns
// ErrIndexFieldMissing.
func ResolveField(dp Datapoint, path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrIndexFieldMissing)
	}

	segments := strings.Split(path, ".")
	var current any
	switch segments[0] {
	case fieldRootData:
		current, segments = dp.Data, segments[1:]
	case fieldRootTarget:
		current, segments = dp.Target, segments[1:]
	case fieldRootMetadata:
		current, segments = map[string]any(dp.Metadata), segments[1:]
	default:
		current = dp.Data
	}

	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIndexFieldMissing, path)
		}
		current, ok = obj[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIndexFieldMissing, path)
		}
	}

	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexFieldMissing, path)
	}
	return current, nil
}

// FieldText converts a resolved field value to the text that gets embedded.
// Strings are used verbatim; anything else is compact JSON.
func FieldText(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode field value: %w", err)
	}
	return string(b), nil
}

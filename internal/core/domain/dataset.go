package domain

import "time"

// Dataset is a named collection of datapoints scoped to a project.
type Dataset struct {
	// ID is the unique identifier for the dataset.
	ID string `json:"id"`

	// ProjectID is the owning project. It doubles as the vector index namespace.
	ProjectID string `json:"projectId"`

	// Name is the human-readable name.
	Name string `json:"name"`

	// IndexedOn is the datapoint field currently embedded. Nil means not indexed.
	// It only changes through the re-index commit step.
	IndexedOn *string `json:"indexedOn"`

	// CreatedAt is when the dataset was created.
	CreatedAt time.Time `json:"createdAt"`
}

// IsIndexed returns true if the dataset has an indexed field.
func (d Dataset) IsIndexed() bool {
	return d.IndexedOn != nil
}

// IndexedOnString returns the indexed field or an empty string.
func (d Dataset) IndexedOnString() string {
	if d.IndexedOn == nil {
		return ""
	}
	return *d.IndexedOn
}

// SameIndexColumn reports whether two optional index columns are equal.
// Two nil columns are equal; a nil and a set column are not.
func SameIndexColumn(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IndexColumn converts a possibly empty field name to an optional column.
// An empty string means "not indexed".
func IndexColumn(field string) *string {
	if field == "" {
		return nil
	}
	return &field
}

package driven

// FileParser decodes an uploaded file into raw datapoint values.
// Each value is handed to domain.TryFromRaw.
type FileParser interface {
	// Parse decodes content according to the filename's extension.
	// Returns domain.ErrUnsupportedType for unknown extensions.
	Parse(filename string, content []byte) ([]any, error)

	// SupportedExtensions lists the file extensions the parser accepts.
	SupportedExtensions() []string
}

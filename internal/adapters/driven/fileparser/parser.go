// Package fileparser decodes uploaded files into raw datapoint values.
//
// Every format yields objects shaped like the create payload
// ({"data": ..., "target": ..., "metadata": {...}, "id": ...}); validation
// is left to domain.TryFromRaw so a bad record only rejects itself.
package fileparser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.FileParser = (*Parser)(nil)

type decodeFunc func(filename string, content []byte) ([]any, error)

// Parser dispatches on the file extension.
type Parser struct {
	decoders map[string]decodeFunc
}

// New creates a parser for every supported format.
func New() *Parser {
	return &Parser{
		decoders: map[string]decodeFunc{
			".json":   decodeJSON,
			".jsonl":  decodeJSONLines,
			".ndjson": decodeJSONLines,
			".csv":    decodeCSV,
			".yaml":   decodeYAML,
			".yml":    decodeYAML,
			".xlsx":   decodeXLSX,
			".pdf":    decodePDF,
		},
	}
}

// Parse decodes content according to the filename's extension.
func (p *Parser) Parse(filename string, content []byte) ([]any, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	decode, ok := p.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(p.SupportedExtensions(), ", "))
	}
	raws, err := decode(filepath.Base(filename), content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, filepath.Base(filename), err)
	}
	return raws, nil
}

// Supports reports whether the filename has a supported extension.
func (p *Parser) Supports(filename string) bool {
	_, ok := p.decoders[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SupportedExtensions lists the accepted extensions in sorted order.
func (p *Parser) SupportedExtensions() []string {
	exts := make([]string, 0, len(p.decoders))
	for ext := range p.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// rowToRaw maps a tabular row onto a raw datapoint. Columns named "id" and
// "target" fill those fields, "metadata.<key>" columns fill metadata, and
// everything else (with an optional "data." prefix) goes into data.
// Empty metadata cells are dropped.
func rowToRaw(header, row []string) map[string]any {
	data := map[string]any{}
	metadata := map[string]any{}
	raw := map[string]any{"data": data, "metadata": metadata}

	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = row[i]
		}

		switch {
		case col == "id":
			if value != "" {
				raw["id"] = value
			}
		case col == "target":
			if value != "" {
				raw["target"] = value
			}
		case strings.HasPrefix(col, "metadata."):
			if value != "" {
				metadata[strings.TrimPrefix(col, "metadata.")] = value
			}
		default:
			data[strings.TrimPrefix(col, "data.")] = value
		}
	}
	return raw
}

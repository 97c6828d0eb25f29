package fileparser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// decodePDF yields one record per page with text, skipping blank pages.
func decodePDF(filename string, content []byte) ([]any, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	pages := make([]string, r.NumPage())
	for i := range pages {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i+1, err)
		}
		pages[i] = text
	}
	return pagesToRaw(filename, pages), nil
}

// pagesToRaw builds {"data": {"text"}, "metadata": {"source", "page"}} records.
// Metadata values are strings so they can be used in filters.
func pagesToRaw(filename string, pages []string) []any {
	var raws []any
	for i, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		raws = append(raws, map[string]any{
			"data": map[string]any{"text": text},
			"metadata": map[string]any{
				"source": filename,
				"page":   strconv.Itoa(i + 1),
			},
		})
	}
	return raws
}

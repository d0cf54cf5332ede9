// Package codec converts documents to and from their JSON blob form, used
// both for the persisted state and for .cheat-sheet export files.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/cheatsheet/internal/apperr"
	"github.com/starford/cheatsheet/internal/models"
)

// FileExtension is appended to exported sheets.
const FileExtension = ".cheat-sheet"

// ExportFilename is the default download name.
const ExportFilename = "design" + FileExtension

// Save serializes doc as compact JSON. The output depends only on doc, so
// saving the same value twice yields identical bytes.
func Save(doc models.Document) ([]byte, error) {
	data, err := json.Marshal(pages(doc))
	if err != nil {
		return nil, fmt.Errorf("codec: save: %w", err)
	}
	return data, nil
}

// Export serializes doc with 2-space indentation for downloads.
func Export(doc models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(pages(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("codec: export: %w", err)
	}
	return data, nil
}

func pages(doc models.Document) []models.Page {
	if doc.Pages == nil {
		return []models.Page{}
	}
	return doc.Pages
}

// Load decodes a stored blob. The value must be a non-empty list of pages,
// each a list of columns holding block objects; otherwise the returned error
// wraps apperr.ErrInvalidFormat. Short pages are padded to three columns and
// blocks of surplus columns are appended to the last one.
func Load(data []byte) (models.Document, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Document{}, invalid("top level is not a list of pages: %v", err)
	}
	if len(raw) == 0 {
		return models.Document{}, invalid("document has no pages")
	}

	doc := models.Document{Pages: make([]models.Page, 0, len(raw))}
	for i, rp := range raw {
		if !isArray(rp) {
			return models.Document{}, invalid("page %d is not a list of columns", i)
		}
		var cols [][]models.Block
		if err := json.Unmarshal(rp, &cols); err != nil {
			return models.Document{}, invalid("page %d: %v", i, err)
		}
		doc.Pages = append(doc.Pages, toPage(cols))
	}
	return doc, nil
}

// CheckImport applies the shallow import check (a list whose first element
// is itself a list) before the full Load.
func CheckImport(data []byte) (models.Document, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 || !isArray(raw[0]) {
		return models.Document{}, invalid("expected a list of pages")
	}
	return Load(data)
}

func toPage(cols [][]models.Block) models.Page {
	p := models.NewPage()
	for c, blocks := range cols {
		target := c
		if target >= models.ColumnsPerPage {
			target = models.ColumnsPerPage - 1
		}
		for _, b := range blocks {
			p[target] = append(p[target], models.Normalize(b))
		}
	}
	return p
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperr.ErrInvalidFormat}, args...)...)
}

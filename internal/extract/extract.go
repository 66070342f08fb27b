// Package extract implements the text-extractor family (component C2): a
// pluggable, format-keyed family that turns a file on disk into plain text
// plus structural hints, consumed by the document parser stage (C3).
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
	"github.com/sharoA/document-analyzer-sub000/pkg/mime"
)

// Section is one heading-delimited region of the document.
type Section struct {
	Heading string `json:"heading"`
	Offset  int    `json:"offset"` // rune offset into RawText where the section starts
	Level   int    `json:"level"`  // heading depth, 1 = top-level; 0 when the format has no headings
}

// TableRegion marks a detected table by its approximate span in RawText.
type TableRegion struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
	RowCount    int `json:"row_count"`
}

// ImageRef is a reference to an embedded image, positioned by its offset
// in RawText (the point at which it appeared in document order).
type ImageRef struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
}

// ExtractedDoc is the deterministic output of running an Extractor over one
// file's bytes.
type ExtractedDoc struct {
	RawText    string        `json:"raw_text"`
	CharCount  int           `json:"char_count"`
	WordCount  int           `json:"word_count"`
	LineCount  int           `json:"line_count"`
	Language   string        `json:"language"`
	Sections   []Section     `json:"sections"`
	Tables     []TableRegion `json:"tables"`
	Images     []ImageRef    `json:"images"`
}

// Extractor turns the bytes at storagePath into an ExtractedDoc. A given
// extractor must be deterministic on the same input bytes. Unsupported or
// corrupt input is signaled via *errs.Error (KindValidation /
// KindParseFailed), not via a distinct Go error type, so callers can branch
// on errs.KindOf uniformly across extractors.
type Extractor interface {
	// Name identifies the extractor for logging and registry lookups
	// (e.g. "txt", "markdown", "docx", "pdf").
	Name() string
	Extract(ctx context.Context, storagePath string) (*ExtractedDoc, error)
}

// Registry selects an Extractor by file extension, mirroring the document
// parser stage's "select extractor by extension/mime" milestone.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a Registry with the standard txt/markdown/docx/pdf
// extractors already wired in.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".txt", NewTextExtractor())
	r.Register(".md", NewMarkdownExtractor())
	r.Register(".markdown", NewMarkdownExtractor())
	r.Register(".docx", NewDocxExtractor())
	r.Register(".pdf", NewPDFExtractor())
	return r
}

// Register associates ext (including the leading dot, lowercase) with an
// Extractor, overwriting any previous registration.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// For selects the Extractor for fileName by its extension. The returned
// error is always an *errs.Error with KindValidation when the extension is
// not registered.
func (r *Registry) For(fileName string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, errs.Validation("document_parsing", fmt.Errorf("unsupported file extension %q", ext))
	}
	return e, nil
}

// MimeFor is a thin convenience wrapper around pkg/mime's extension-based
// lookup, used by the document parser stage to populate file-format
// metadata alongside the extracted text.
func MimeFor(fileName string) string {
	return mime.StringTypeByExtension(fileName)
}

// countStats computes the char/word/line counts shared by every extractor.
func countStats(text string) (chars, words, lines int) {
	chars = len([]rune(text))
	lines = strings.Count(text, "\n") + 1
	if text == "" {
		lines = 0
	}
	words = len(strings.Fields(text))
	return
}

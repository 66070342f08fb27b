package extract

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
)

// PDFExtractor handles .pdf input via ledongthuc/pdf. PDF carries no
// semantic heading markup, so Sections are recovered heuristically: a
// short line (under headingMaxWords words) that is immediately followed by
// a longer paragraph is treated as a level-1 heading. Tables aren't
// structurally recoverable from this library's plain-text view, so
// ExtractedDoc.Tables is always empty for PDF input; embedded images are
// likewise not exposed by this library's text-only API, so Images is
// empty too — both are documented gaps rather than silent omissions.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) Name() string { return "pdf" }

const headingMaxWords = 8

func (e *PDFExtractor) Extract(_ context.Context, storagePath string) (*ExtractedDoc, error) {
	f, r, err := pdf.Open(storagePath)
	if err != nil {
		return nil, errs.ParseFailed("document_parsing", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return nil, errs.ParseFailed("document_parsing", err)
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, errs.ParseFailed("document_parsing", err)
	}

	text := buf.String()
	chars, words, lines := countStats(text)

	doc := &ExtractedDoc{
		RawText:   text,
		CharCount: chars,
		WordCount: words,
		LineCount: lines,
		Language:  detectLanguage(text),
	}

	offset := 0
	rawLines := strings.Split(text, "\n")
	for i, line := range rawLines {
		trimmed := strings.TrimSpace(line)
		wordCount := len(strings.Fields(trimmed))
		nextHasContent := i+1 < len(rawLines) && len(strings.Fields(rawLines[i+1])) > wordCount
		if trimmed != "" && wordCount > 0 && wordCount <= headingMaxWords && nextHasContent {
			doc.Sections = append(doc.Sections, Section{Heading: trimmed, Offset: offset, Level: 1})
		}
		offset += len([]rune(line))
		if i < len(rawLines)-1 {
			offset++
		}
	}

	return doc, nil
}

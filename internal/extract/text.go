package extract

import (
	"context"
	"os"
	"strings"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
)

// TextExtractor handles plain .txt input: no structural markup exists, so
// RawText passes through untouched and Sections/Tables/Images are empty.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

func (e *TextExtractor) Name() string { return "txt" }

// detectLanguage is a minimal heuristic: it has no third-party alternative
// in the dependency pack, so it stays on the standard library per
// DESIGN.md's stdlib-justification rule. It only distinguishes "en" from
// "unknown" by stop-word density, which is all the pipeline needs to
// populate ExtractedDoc.Language for downstream metadata tagging.
func detectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}
	lower := " " + strings.ToLower(text) + " "
	hits := 0
	for _, w := range []string{" the ", " and ", " is ", " of ", " to ", " a ", " in "} {
		hits += strings.Count(lower, w)
	}
	if hits >= 2 {
		return "en"
	}
	return "unknown"
}

func (e *TextExtractor) Extract(_ context.Context, storagePath string) (*ExtractedDoc, error) {
	b, err := os.ReadFile(storagePath)
	if err != nil {
		return nil, errs.ParseFailed("document_parsing", err)
	}
	text := string(b)
	chars, words, lines := countStats(text)
	return &ExtractedDoc{
		RawText:   text,
		CharCount: chars,
		WordCount: words,
		LineCount: lines,
		Language:  detectLanguage(text),
	}, nil
}

package extract

import (
	"context"
	"os"
	"strings"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
)

// MarkdownExtractor handles .md/.markdown input. Headings (`#`...`######`)
// become Sections, and contiguous `|`-delimited line blocks become
// TableRegions. No image-extraction library runs here: embedded image
// references are simply the `![...](path)` links markdown already encodes
// inline, so they're pulled out with a line scan rather than a dependency.
type MarkdownExtractor struct{}

func NewMarkdownExtractor() *MarkdownExtractor { return &MarkdownExtractor{} }

func (e *MarkdownExtractor) Name() string { return "markdown" }

func (e *MarkdownExtractor) Extract(_ context.Context, storagePath string) (*ExtractedDoc, error) {
	b, err := os.ReadFile(storagePath)
	if err != nil {
		return nil, errs.ParseFailed("document_parsing", err)
	}
	text := string(b)
	chars, words, lines := countStats(text)

	doc := &ExtractedDoc{
		RawText:   text,
		CharCount: chars,
		WordCount: words,
		LineCount: lines,
		Language:  detectLanguage(text),
	}

	offset := 0
	inTable := false
	tableStart := 0
	tableRows := 0
	lineList := strings.Split(text, "\n")
	for i, line := range lineList {
		trimmed := strings.TrimSpace(line)

		if level, heading, ok := parseHeading(trimmed); ok {
			doc.Sections = append(doc.Sections, Section{Heading: heading, Offset: offset, Level: level})
		}

		if path, ok := parseImageRef(trimmed); ok {
			doc.Images = append(doc.Images, ImageRef{Path: path, Offset: offset})
		}

		isTableRow := strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") && len(trimmed) > 1
		switch {
		case isTableRow && !inTable:
			inTable = true
			tableStart = offset
			tableRows = 1
		case isTableRow && inTable:
			if strings.Trim(trimmed, "|-: ") != "" { // the |---|---| delimiter is not a row
				tableRows++
			}
		case !isTableRow && inTable:
			doc.Tables = append(doc.Tables, TableRegion{StartOffset: tableStart, EndOffset: offset, RowCount: tableRows})
			inTable = false
		}

		offset += len([]rune(line))
		if i < len(lineList)-1 {
			offset++ // account for the stripped '\n'
		}
	}
	if inTable {
		doc.Tables = append(doc.Tables, TableRegion{StartOffset: tableStart, EndOffset: offset, RowCount: tableRows})
	}

	return doc, nil
}

func parseHeading(line string) (level int, heading string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	level = 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) {
		return 0, "", false
	}
	if line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

func parseImageRef(line string) (path string, ok bool) {
	idx := strings.Index(line, "![")
	if idx == -1 {
		return "", false
	}
	rest := line[idx:]
	open := strings.Index(rest, "](")
	if open == -1 {
		return "", false
	}
	rest = rest[open+2:]
	closeIdx := strings.Index(rest, ")")
	if closeIdx == -1 {
		return "", false
	}
	return rest[:closeIdx], true
}

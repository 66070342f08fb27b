package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/sharoA/document-analyzer-sub000/internal/errs"
)

// DocxExtractor handles .docx input via nguyenthenguyen/docx, which exposes
// the document body as WordprocessingML XML; plain text comes from
// stripping tags and a handful of structural signals (headings, tables,
// embedded media) are recovered from that same markup.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor { return &DocxExtractor{} }

func (e *DocxExtractor) Name() string { return "docx" }

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	headingRe   = regexp.MustCompile(`<w:pStyle w:val="Heading([1-6])"`)
	tableRowRe  = regexp.MustCompile(`<w:tbl>`)
	tableEndRe  = regexp.MustCompile(`</w:tbl>`)
	tableRowCt  = regexp.MustCompile(`<w:tr[ >]`)
	mediaRefRe  = regexp.MustCompile(`r:embed="(rId[0-9]+)"`)
	paragraphRe = regexp.MustCompile(`<w:p[ >][\s\S]*?</w:p>`)
)

func (e *DocxExtractor) Extract(_ context.Context, storagePath string) (*ExtractedDoc, error) {
	r, err := docx.ReadDocxFile(storagePath)
	if err != nil {
		return nil, errs.ParseFailed("document_parsing", err)
	}
	defer r.Close()

	editable := r.Editable()
	xmlContent := editable.GetContent()

	text := strings.TrimSpace(tagRe.ReplaceAllString(stripRunProps(xmlContent), " "))
	text = collapseWhitespace(text)
	chars, words, lines := countStats(text)

	doc := &ExtractedDoc{
		RawText:   text,
		CharCount: chars,
		WordCount: words,
		LineCount: lines,
		Language:  detectLanguage(text),
	}

	for _, m := range headingRe.FindAllStringSubmatchIndex(xmlContent, -1) {
		levelStr := xmlContent[m[2]:m[3]]
		level := int(levelStr[0] - '0')
		heading := nextParagraphText(xmlContent, m[1])
		doc.Sections = append(doc.Sections, Section{Heading: heading, Offset: approximateOffset(xmlContent, m[0], text), Level: level})
	}

	starts := tableRowRe.FindAllStringIndex(xmlContent, -1)
	ends := tableEndRe.FindAllStringIndex(xmlContent, -1)
	for i := range starts {
		if i >= len(ends) {
			break
		}
		segment := xmlContent[starts[i][0]:ends[i][1]]
		doc.Tables = append(doc.Tables, TableRegion{
			StartOffset: approximateOffset(xmlContent, starts[i][0], text),
			EndOffset:   approximateOffset(xmlContent, ends[i][1], text),
			RowCount:    len(tableRowCt.FindAllString(segment, -1)),
		})
	}

	for _, m := range mediaRefRe.FindAllStringSubmatchIndex(xmlContent, -1) {
		doc.Images = append(doc.Images, ImageRef{
			Path:   xmlContent[m[2]:m[3]],
			Offset: approximateOffset(xmlContent, m[0], text),
		})
	}

	return doc, nil
}

// stripRunProps removes run/paragraph property blocks so tag stripping
// doesn't leave stray style attribute text behind in the plain-text output.
func stripRunProps(xmlContent string) string {
	rPr := regexp.MustCompile(`<w:(r|p)Pr>[\s\S]*?</w:(r|p)Pr>`)
	return rPr.ReplaceAllString(xmlContent, "")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nextParagraphText returns the plain text of the first <w:p>...</w:p>
// block starting at or after pos, used to recover a heading's own text.
func nextParagraphText(xmlContent string, pos int) string {
	idx := strings.Index(xmlContent[pos:], "<w:p")
	if idx == -1 {
		return ""
	}
	loc := paragraphRe.FindStringIndex(xmlContent[pos+idx:])
	if loc == nil {
		return ""
	}
	block := xmlContent[pos+idx+loc[0] : pos+idx+loc[1]]
	return collapseWhitespace(tagRe.ReplaceAllString(block, " "))
}

// approximateOffset maps a byte position in the raw XML to a rune offset in
// the extracted plain text, proportionally — exact enough to order
// sections/tables/images relative to each other and to RawText's length.
func approximateOffset(xmlContent string, xmlPos int, text string) int {
	if len(xmlContent) == 0 {
		return 0
	}
	ratio := float64(xmlPos) / float64(len(xmlContent))
	offset := int(ratio * float64(len([]rune(text))))
	if offset < 0 {
		offset = 0
	}
	return offset
}

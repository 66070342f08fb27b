package strutil

import (
	"regexp"
	"strings"

	pkgSystem "github.com/sharoA/document-analyzer-sub000/pkg/system"
)

var (
	spacesRegex             = regexp.MustCompile(`(?m)^\s+|\s+$`)
	emptyLinesRegex         = regexp.MustCompile(`(?m)^\s*[\r\n]+`)
	whitespaceLineRegex     = regexp.MustCompile(`(?m)^[ \t]*[\r\n]+`)
	multipleBlankLinesRegex = regexp.MustCompile(`(?m)([\r\n]{2,})`)
)

func AlignToLeft(text string) string {
	text = spacesRegex.ReplaceAllString(text, "")
	text = emptyLinesRegex.ReplaceAllString(text, "\n")
	return text
}

func TrimAdjacentBlankLines(text string) string {
	result := whitespaceLineRegex.ReplaceAllString(text, "\n")
	result = multipleBlankLinesRegex.ReplaceAllString(result, "\n\n")
	return result
}

func DeleteTopTextLines(text string, numberOfLines int) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	lines := strings.Split(text, pkgSystem.LineSeparator())
	if len(lines) <= numberOfLines {
		return ""
	}
	return strings.Join(lines[numberOfLines:], pkgSystem.LineSeparator())
}

func DeleteBottomTextLines(text string, numberOfLines int) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	lines := strings.Split(text, pkgSystem.LineSeparator())
	if len(lines) <= numberOfLines {
		return ""
	}
	return strings.Join(lines[:len(lines)-numberOfLines], pkgSystem.LineSeparator())
}

var fencedCodeBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON pulls the first JSON value out of raw LLM output text.
// It tolerates fenced code blocks (```json ... ``` or ``` ... ```) and
// falls back to locating the outermost {...} or [...] span when the
// response carries no fences at all.
func ExtractJSON(text string) (string, bool) {
	if m := fencedCodeBlockRegex.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if candidate != "" {
			return candidate, true
		}
	}

	trimmed := strings.TrimSpace(text)
	start := -1
	var closer byte
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '{' || trimmed[i] == '[' {
			start = i
			if trimmed[i] == '{' {
				closer = '}'
			} else {
				closer = ']'
			}
			break
		}
	}
	if start == -1 {
		return "", false
	}
	end := strings.LastIndexByte(trimmed, closer)
	if end == -1 || end < start {
		return "", false
	}
	return trimmed[start : end+1], true
}

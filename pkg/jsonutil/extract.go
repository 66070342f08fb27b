package jsonutil

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON pulls a JSON object or array out of raw LLM output. It
// tolerates the two shapes models commonly produce: a fenced ```json code
// block, or a bare object/array possibly surrounded by prose. It returns
// the narrowest valid JSON substring found.
func ExtractJSON(raw string) (string, error) {
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	if candidate, ok := firstBalancedJSON(trimmed); ok {
		return candidate, nil
	}

	return "", fmt.Errorf("jsonutil: no valid JSON object or array found in response")
}

// UnmarshalExtracted extracts the first JSON value from raw and unmarshals
// it into v.
func UnmarshalExtracted(raw string, v any) error {
	candidate, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(candidate), v)
}

// UnmarshalExtractedStrict is UnmarshalExtracted plus a required-field pass:
// json.Unmarshal alone zero-fills a field the response omitted, which would
// let an empty `{}` response through as a "valid" but useless value. Fields
// tagged `jsonschema:"required"` on v's underlying struct (see StringDefSchemaOf,
// which emits the same tags into the prompted schema) are checked for a
// non-zero value after unmarshaling, and their absence is reported as an error
// so callers can treat it the same as a malformed-JSON failure.
func UnmarshalExtractedStrict(raw string, v any) error {
	if err := UnmarshalExtracted(raw, v); err != nil {
		return err
	}
	if missing := missingRequiredFields(v); len(missing) > 0 {
		return fmt.Errorf("jsonutil: missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// missingRequiredFields reports the json tag names of v's struct fields
// tagged `jsonschema:"required"` whose decoded value is still the zero value.
func missingRequiredFields(v any) []string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	rt := rv.Type()
	var missing []string
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !strings.Contains(field.Tag.Get("jsonschema"), "required") {
			continue
		}
		if !rv.Field(i).IsZero() {
			continue
		}
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" {
			name = field.Name
		}
		missing = append(missing, name)
	}
	return missing
}

// firstBalancedJSON scans for the first brace/bracket-balanced {...} or
// [...] substring, skipping over string literals so braces inside quoted
// text don't throw off the balance count.
func firstBalancedJSON(s string) (string, bool) {
	start := -1
	var openChar, closeChar byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			if s[i] == '{' {
				openChar, closeChar = '{', '}'
			} else {
				openChar, closeChar = '[', ']'
			}
			break
		}
	}
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

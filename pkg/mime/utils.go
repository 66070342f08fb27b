// Package mime provides utilities for working with MIME types, including parsing,
// creation, detection, and type checking functionality.
package mime

import (
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sharoA/document-analyzer-sub000/pkg/kv"
)

// ErrorInvalidMimeType is returned when an invalid MIME type is encountered during parsing.
var ErrorInvalidMimeType = errors.New("invalid mime type")

// Predefined top-level categories, used by the Is* classification helpers below.
var (
	all         = *MustNew(wildcardType, wildcardType)
	text        = *MustNew("text", wildcardType)
	video       = *MustNew("video", wildcardType)
	audio       = *MustNew("audio", wildcardType)
	image       = *MustNew("image", wildcardType)
	application = *MustNew("application", wildcardType)
)

// New creates a new MIME instance with the specified type and subtype.
// An empty type or subtype defaults to the wildcard "*".
func New(_type string, subType string) (*MIME, error) {
	return NewBuilder().
		WithType(_type).
		WithSubType(subType).
		Build()
}

// MustNew is New, panicking on error.
func MustNew(_type string, subType string) *MIME {
	return NewBuilder().
		WithType(_type).
		WithSubType(subType).
		MustBuild()
}

// Parse converts a string representation of a MIME type into a MIME object.
// Handles parameters, wildcards, and validates the format according to
// RFC 2045/2046. Returns an error for malformed MIME type strings.
func Parse(mimeString string) (*MIME, error) {
	index := strings.Index(mimeString, ";")
	fullType := mimeString
	if index >= 0 {
		fullType = mimeString[:index]
	}
	fullType = strings.TrimSpace(fullType)
	if fullType == "" {
		return nil, errors.Join(ErrorInvalidMimeType, errors.New("'mime type' must not be empty"))
	}
	if fullType == wildcardType {
		fullType = "*/*"
	}
	subIndex := strings.Index(fullType, "/")
	if subIndex == -1 {
		return nil, errors.Join(ErrorInvalidMimeType, errors.New("does not contain '/'"))
	}
	if subIndex == len(fullType)-1 {
		return nil, errors.Join(ErrorInvalidMimeType, errors.New("does not contain subtype after '/'"))
	}
	_type := fullType[:subIndex]
	subType := fullType[subIndex+1:]
	if _type == wildcardType && subType != wildcardType {
		return nil, errors.Join(ErrorInvalidMimeType, errors.New("wildcard type is legal only in '*/*' (all mime types)"))
	}

	params := kv.New[string, string]()
	for index < len(mimeString) {
		nextIndex := index + 1
		quoted := false
		for nextIndex < len(mimeString) {
			ch := mimeString[nextIndex]
			if ch == ';' {
				if !quoted {
					break
				}
			} else if ch == '"' {
				quoted = !quoted
			}
			nextIndex++
		}
		param := strings.TrimSpace(mimeString[index+1 : nextIndex])
		if len(param) > 0 {
			eqIndex := strings.Index(param, "=")
			if eqIndex > 0 {
				attr := strings.TrimSpace(param[:eqIndex])
				value := strings.TrimSpace(param[eqIndex+1:])
				params.Put(attr, value)
			}
		}
		index = nextIndex
	}

	m, err := NewBuilder().
		WithType(_type).
		WithSubType(subType).
		WithParams(params).
		Build()
	if err != nil {
		return nil, errors.Join(ErrorInvalidMimeType, err)
	}
	return m, nil
}

// Detect identifies the MIME type of a byte slice using content sniffing.
func Detect(b []byte) (*MIME, error) {
	m := mimetype.Detect(b)
	return Parse(m.String())
}

// DetectReader identifies the MIME type of content from an io.Reader using
// content sniffing. mimetype.DetectReader only consumes its sniffing window,
// not the full reader.
func DetectReader(r io.Reader) (*MIME, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, err
	}
	return Parse(m.String())
}

// DetectFile identifies the MIME type of the file at the given path using
// content sniffing.
func DetectFile(path string) (*MIME, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(m.String())
}

// IsVideo reports whether m belongs to the video/* category.
func IsVideo(m *MIME) bool {
	return video.EqualsType(m)
}

// IsAudio reports whether m belongs to the audio/* category.
func IsAudio(m *MIME) bool {
	return audio.EqualsType(m)
}

// IsImage reports whether m belongs to the image/* category.
func IsImage(m *MIME) bool {
	return image.EqualsType(m)
}

// IsText reports whether m belongs to the text/* category.
func IsText(m *MIME) bool {
	return text.EqualsType(m)
}

// IsApplication reports whether m belongs to the application/* category.
func IsApplication(m *MIME) bool {
	return application.EqualsType(m)
}

package schema

import (
	"bytes"
	"errors"
	"path"
	"strings"
)

// Encoding names the textual encoding of a document payload.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

var (
	// ErrNoSource is returned when a document is built without an origin.
	ErrNoSource = errors.New("schema: source is required")
	// ErrEmptyDocument is returned for payloads holding only whitespace.
	ErrEmptyDocument = errors.New("schema: raw document is empty")
)

var encodingByExt = map[string]Encoding{
	".json": EncodingJSON,
	".yaml": EncodingYAML,
	".yml":  EncodingYAML,
}

// Document is an immutable payload tagged with where it came from.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument keeps its own copy of raw.
func NewDocument(src Source, raw []byte) (Document, error) {
	switch {
	case src == nil:
		return Document{}, ErrNoSource
	case len(bytes.TrimSpace(raw)) == 0:
		return Document{}, ErrEmptyDocument
	}
	return Document{source: src, raw: bytes.Clone(raw)}, nil
}

// MustNewDocument is NewDocument for fixtures; it panics on error.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

func (d Document) Source() Source { return d.source }

// Raw hands out a copy; callers may mutate it.
func (d Document) Raw() []byte { return bytes.Clone(d.raw) }

// Location is the source location, or "" for a zero Document.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Encoding trusts a known file extension and sniffs the payload otherwise.
func (d Document) Encoding() Encoding {
	if enc, ok := encodingByExt[strings.ToLower(path.Ext(d.Location()))]; ok {
		return enc
	}
	return DetectEncoding(d.raw)
}

// DetectEncoding treats payloads opening with an object or array as JSON.
// Everything else is YAML, which is a superset for our purposes.
func DetectEncoding(raw []byte) Encoding {
	trimmed := bytes.TrimLeft(raw, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return EncodingYAML
	}
	switch trimmed[0] {
	case '{', '[':
		return EncodingJSON
	default:
		return EncodingYAML
	}
}

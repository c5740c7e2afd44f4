package schema

import (
	"path/filepath"
	"strings"
)

// Source identifies where a schema or layout document came from.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile   SourceKind = "file"
	SourceKindFS     SourceKind = "fs"
	SourceKindInline SourceKind = "inline"
)

type location struct {
	kind SourceKind
	at   string
}

func (l location) Kind() SourceKind { return l.kind }
func (l location) Location() string { return l.at }

// SourceFromFile points at a path on disk.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, at: filepath.Clean(path)}
}

// SourceFromFS points at an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, at: name}
}

// SourceInline names an in-memory document. A loader only resolves it when
// the document was registered through WithInlineDocument.
func SourceInline(name string) Source {
	if name = strings.TrimSpace(name); name == "" {
		name = "inline"
	}
	return location{kind: SourceKindInline, at: name}
}

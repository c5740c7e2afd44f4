package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

// Loader implements schema.Loader over disk files, one fs.FS and a table of
// registered inline documents.
type Loader struct {
	fs       fs.FS
	inline   map[string][]byte
	maxBytes int64
}

var _ schema.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options schema.LoaderOptions) *Loader {
	return &Loader{fs: options.FileSystem, inline: options.Inline, maxBytes: options.MaxDocumentBytes}
}

// Load reads the document behind src. Oversized documents fail before they
// are read in full.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("schema loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	name := strings.TrimSpace(src.Location())
	if name == "" {
		return schema.Document{}, fmt.Errorf("schema loader: %s source has no location", src.Kind())
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = l.read(os.Open(name))
	case schema.SourceKindFS:
		data, err = l.readFS(name)
	case schema.SourceKindInline:
		raw, ok := l.inline[name]
		if !ok {
			return schema.Document{}, fmt.Errorf("schema loader: inline document %q is not registered", name)
		}
		data, err = l.read(io.NopCloser(bytes.NewReader(raw)), nil)
	default:
		err = fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("schema loader: %s: %w", name, err)
	}
	return schema.NewDocument(src, data)
}

func (l *Loader) readFS(name string) ([]byte, error) {
	if l.fs == nil {
		return nil, errors.New("no file system configured")
	}
	cleaned := path.Clean(strings.TrimPrefix(name, "/"))
	if cleaned == "." {
		return nil, errors.New("fs path is required")
	}
	return l.read(l.fs.Open(cleaned))
}

func (l *Loader) read(r io.ReadCloser, openErr error) ([]byte, error) {
	if openErr != nil {
		return nil, openErr
	}
	defer r.Close()
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}

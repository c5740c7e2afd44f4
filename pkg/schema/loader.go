package schema

import (
	"context"
	"io/fs"
)

// Loader fetches raw documents from a Source. The implementation lives under
// internal/jsonschema/loader.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configures how a Loader resolves sources. Network fetch is
// not supported.
type LoaderOptions struct {
	// FileSystem backs fs sources; nil disables them.
	FileSystem fs.FS
	// MaxDocumentBytes caps a single document; zero means unlimited.
	MaxDocumentBytes int64
	// Inline holds in-memory documents served for inline sources by name.
	Inline map[string][]byte
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS for fs sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithMaxDocumentBytes caps the size of loaded documents.
func WithMaxDocumentBytes(limit int64) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.MaxDocumentBytes = limit
	}
}

// WithInlineDocument registers raw under name so inline sources, and refs
// naming them, resolve without touching disk.
func WithInlineDocument(name string, raw []byte) LoaderOption {
	return func(opts *LoaderOptions) {
		if opts.Inline == nil {
			opts.Inline = map[string][]byte{}
		}
		opts.Inline[name] = raw
	}
}

// NewLoaderOptions applies options over the zero configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

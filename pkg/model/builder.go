package model

import (
	"github.com/goliatone/go-schemaform/internal/model"
	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// Walker expands schema nodes into descriptors.
type Walker interface {
	Expand(node *schema.Schema, prefix keypath.Path) ([]*Descriptor, error)
	Labeler() func(string) string
}

// WalkerOption configures the walker behaviour.
type WalkerOption func(*walkerOptions)

type walkerOptions struct {
	labeler           func(string) string
	textareaThreshold int
	widgets           WidgetResolver
}

// WidgetResolver picks a decorator type for a freshly described node.
type WidgetResolver interface {
	Resolve(d *Descriptor) (string, bool)
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) WalkerOption {
	return func(opts *walkerOptions) {
		opts.labeler = labeler
	}
}

// WithTextareaThreshold sets the maxLength above which strings render as
// textareas.
func WithTextareaThreshold(limit int) WalkerOption {
	return func(opts *walkerOptions) {
		opts.textareaThreshold = limit
	}
}

// WithWidgetResolver consults r for every described node. A type from an
// x-schemaform widget hint still takes precedence.
func WithWidgetResolver(r WidgetResolver) WalkerOption {
	return func(opts *walkerOptions) {
		opts.widgets = r
	}
}

// NewWalker returns a Walker backed by the internal implementation.
func NewWalker(options ...WalkerOption) Walker {
	cfg := walkerOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	opts := model.Options{
		Labeler:           cfg.labeler,
		TextareaThreshold: cfg.textareaThreshold,
	}
	if cfg.widgets != nil {
		opts.Widget = cfg.widgets.Resolve
	}
	return model.New(opts)
}

// Expand runs the default walker over node.
func Expand(node *schema.Schema, prefix keypath.Path) ([]*Descriptor, error) {
	return NewWalker().Expand(node, prefix)
}

// TitleForKey labels a key by its last named segment.
func TitleForKey(key keypath.Path, labeler func(string) string) string {
	return model.TitleForKey(key, labeler)
}

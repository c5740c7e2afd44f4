package resolver

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/registry"
)

// FormOptions are form-wide settings consulted by the field controller.
type FormOptions struct {
	// DestroyStrategy applies to fields without their own strategy.
	DestroyStrategy model.DestroyStrategy
	// ValidationMessage holds global messages used by errorMessage lookups.
	ValidationMessage model.ValidationMessages
}

// Option configures a resolution.
type Option func(*config)

type config struct {
	walker       model.Walker
	walkerOpts   []model.WalkerOption
	labeler      func(string) string
	decorators   []model.Decorator
	form         FormOptions
	registryOpts []registry.Option
	logger       *slog.Logger
}

func newConfig(options []Option) config {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.walker == nil {
		walkerOpts := append([]model.WalkerOption(nil), cfg.walkerOpts...)
		if cfg.labeler != nil {
			walkerOpts = append(walkerOpts, model.WithLabeler(cfg.labeler))
		}
		cfg.walker = model.NewWalker(walkerOpts...)
	}
	if cfg.labeler == nil {
		cfg.labeler = cfg.walker.Labeler()
	}
	return cfg
}

// WithWalker replaces the schema walker.
func WithWalker(walker model.Walker) Option {
	return func(c *config) {
		c.walker = walker
	}
}

// WithWalkerOptions configures the default walker. Ignored when WithWalker
// supplies one.
func WithWalkerOptions(options ...model.WalkerOption) Option {
	return func(c *config) {
		c.walkerOpts = append(c.walkerOpts, options...)
	}
}

// WithLabeler sets the function deriving titles from key segments.
func WithLabeler(labeler func(string) string) Option {
	return func(c *config) {
		c.labeler = labeler
	}
}

// WithDecorators appends descriptor post-passes run before ids are assigned.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(c *config) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// WithFormOptions sets the form-wide options carried by the resolved form.
func WithFormOptions(opts FormOptions) Option {
	return func(c *config) {
		c.form = opts
	}
}

// WithRegistryOptions forwards options to the registry built for the form.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(c *config) {
		c.registryOpts = append(c.registryOpts, opts...)
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

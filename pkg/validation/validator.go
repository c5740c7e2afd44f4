package validation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/messages"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// ErrNilSchema is returned by New without a schema.
var ErrNilSchema = errors.New("validation: schema is required")

const resourceURL = "schemaform.json"

// Issue is one failing keyword for one model location.
type Issue struct {
	// Key is the dotted model path, "" for the root.
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result summarizes an Apply run.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
	// Unmatched lists issues no mounted field is bound to.
	Unmatched []Issue `json:"unmatched,omitempty"`
	Applied   int     `json:"applied"`
	Cleared   int     `json:"cleared"`
}

// Valid reports whether the model passed.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// Option configures a Validator.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	assertFormat    bool
	libraryMessages bool
	printer         *message.Printer
}

// WithLogger routes validator logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFormatAssertions makes the format keyword fail invalid values instead
// of only annotating them.
func WithFormatAssertions() Option {
	return func(c *config) {
		c.assertFormat = true
	}
}

// WithLibraryMessages sends the validator's own wording as the error event
// message. By default events carry no message and fields fall back to their
// errorMessage lookup.
func WithLibraryMessages() Option {
	return func(c *config) {
		c.libraryMessages = true
	}
}

// WithLanguage selects the language issue messages are printed in.
func WithLanguage(tag language.Tag) Option {
	return func(c *config) {
		c.printer = message.NewPrinter(tag)
	}
}

// Validator checks model data against a form schema and turns failures into
// field error events.
type Validator struct {
	compiled *jsv.Schema
	cfg      config
	// raised tracks the codes Apply marked failing, per dotted key.
	raised map[string]map[string]struct{}
}

// New compiles s for model validation.
func New(s *schema.Schema, options ...Option) (*Validator, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	cfg := config{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	compiled, err := compile(s, cfg)
	if err != nil {
		return nil, err
	}
	return &Validator{compiled: compiled, cfg: cfg, raised: make(map[string]map[string]struct{})}, nil
}

func compile(s *schema.Schema, cfg config) (*jsv.Schema, error) {
	compiler := jsv.NewCompiler()
	compiler.DefaultDraft(jsv.Draft2020)
	if cfg.assertFormat {
		compiler.AssertFormat()
	}
	if err := compiler.AddResource(resourceURL, s.Raw); err != nil {
		return nil, fmt.Errorf("validation: add schema: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	return compiled, nil
}

// Check validates root and returns the failing keywords ordered by key then
// code.
func (v *Validator) Check(root any) []Issue {
	err := v.compiled.Validate(root)
	if err == nil {
		return nil
	}
	var verr *jsv.ValidationError
	if !errors.As(err, &verr) {
		return []Issue{{Code: messages.DefaultCode, Message: err.Error()}}
	}

	seen := make(map[[2]string]struct{})
	var out []Issue
	add := func(issue Issue) {
		id := [2]string{issue.Key, issue.Code}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, issue)
	}
	v.collect(verr, add)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// collect walks the cause tree. Leaves become issues; anyOf and oneOf are
// reported once at their own location since their causes are alternatives.
func (v *Validator) collect(verr *jsv.ValidationError, add func(Issue)) {
	code := keywordCode(verr.ErrorKind)
	if len(verr.Causes) > 0 && code != "anyOf" && code != "oneOf" {
		for _, cause := range verr.Causes {
			v.collect(cause, add)
		}
		return
	}

	key := strings.Join(verr.InstanceLocation, ".")
	text := verr.ErrorKind.LocalizedString(v.cfg.printer)
	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, name := range required.Missing {
			add(Issue{Key: joinKey(key, name), Code: code, Message: text})
		}
		return
	}
	add(Issue{Key: key, Code: code, Message: text})
}

func keywordCode(k jsv.ErrorKind) string {
	if k == nil {
		return messages.DefaultCode
	}
	path := k.KeywordPath()
	if len(path) == 0 {
		return messages.DefaultCode
	}
	return path[len(path)-1]
}

func joinKey(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// Validate checks root and returns one invalid error event per issue.
func (v *Validator) Validate(root any) []field.ErrorEvent {
	issues := v.Check(root)
	out := make([]field.ErrorEvent, 0, len(issues))
	for _, issue := range issues {
		out = append(out, v.event(issue))
	}
	return out
}

func (v *Validator) event(issue Issue) field.ErrorEvent {
	msg := ""
	if v.cfg.libraryMessages {
		msg = issue.Message
	}
	return field.Invalid(issue.Key, issue.Code, msg)
}

// Apply validates the controller's model, raises an error event for every
// issue and clears codes an earlier Apply raised that now pass.
func (v *Validator) Apply(ctrl *field.Controller) Result {
	issues := v.Check(ctrl.Model().Root())
	failing := make(map[string]map[string]struct{})
	for _, issue := range issues {
		if failing[issue.Key] == nil {
			failing[issue.Key] = make(map[string]struct{})
		}
		failing[issue.Key][issue.Code] = struct{}{}
	}

	res := Result{Issues: issues}
	for _, key := range sortedKeys(v.raised) {
		for _, code := range sortedKeys(v.raised[key]) {
			if _, still := failing[key][code]; still {
				continue
			}
			res.Cleared += ctrl.RaiseError(field.Valid(key, code))
			delete(v.raised[key], code)
		}
		if len(v.raised[key]) == 0 {
			delete(v.raised, key)
		}
	}

	for _, issue := range issues {
		n := ctrl.RaiseError(v.event(issue))
		if n == 0 {
			res.Unmatched = append(res.Unmatched, issue)
			continue
		}
		res.Applied += n
		if v.raised[issue.Key] == nil {
			v.raised[issue.Key] = make(map[string]struct{})
		}
		v.raised[issue.Key][issue.Code] = struct{}{}
	}

	v.cfg.logger.Debug("validation: applied",
		"issues", len(res.Issues),
		"applied", res.Applied,
		"cleared", res.Cleared,
		"unmatched", len(res.Unmatched),
	)
	return res
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	gojson "github.com/goccy/go-json"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/render"
	"github.com/goliatone/go-schemaform/pkg/validation"
)

// Renderer fills a mounted form from terminal prompts and serializes the
// resulting model. It implements render.Renderer.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	validator         *validation.Validator
	maxAttempts       int
	logger            *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a terminal host with a survey driver and JSON output.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		out:          os.Stdout,
		outputFormat: OutputFormatJSON,
		theme:        Theme{ErrorPrefix: "! "},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unsupported output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every visible field, then serializes the model.
// Server errors in options are shown before the field they belong to.
func (r *Renderer) Render(ctx context.Context, ctrl *field.Controller, options render.RenderOptions) ([]byte, error) {
	if err := r.fill(ctx, ctrl, options); err != nil {
		return nil, err
	}

	values, _ := ctrl.Model().Root().(map[string]any)
	if values == nil {
		values = map[string]any{}
	}
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

// Fill prompts for every visible field and writes the answers into the
// controller's model. Fields whose condition is false are destroyed, which
// applies their destroy strategy.
func (r *Renderer) Fill(ctx context.Context, ctrl *field.Controller) error {
	return r.fill(ctx, ctrl, render.RenderOptions{})
}

type session struct {
	ctrl   *field.Controller
	opts   render.RenderOptions
	server map[string][]string
}

func (r *Renderer) fill(ctx context.Context, ctrl *field.Controller, opts render.RenderOptions) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ctrl == nil {
		return ErrNilController
	}

	s := &session{ctrl: ctrl, opts: opts}
	if len(opts.Errors) > 0 {
		mapping := render.MapErrorPayload(ctrl, opts.Errors)
		s.server = mapping.Fields
		for _, msg := range mapping.Form {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
				return err
			}
		}
	}

	for _, f := range ctrl.Roots() {
		if err := r.fillField(ctx, s, f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) fillField(ctx context.Context, s *session, f *field.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Destroyed() {
		return nil
	}
	visible, err := f.Visible()
	if err != nil {
		return err
	}
	if !visible {
		r.logger.Debug("tui: field hidden", "field_id", f.ID(), "key", f.Descriptor().Key.Dotted())
		if err := s.ctrl.Destroy(f.ID()); err != nil && !errors.Is(err, field.ErrQueued) {
			return err
		}
		return nil
	}
	if f.Descriptor().ReadOnly {
		return nil
	}

	d := f.Descriptor()
	for _, msg := range s.server[d.Key.Dotted()] {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return err
		}
	}

	switch d.Kind() {
	case model.KindFieldset, model.KindSection:
		if labels := render.Localize(d, s.opts); labels.Title != "" && f.ShowTitle() {
			if err := r.driver.Info(ctx, r.theme.InfoPrefix+labels.Title); err != nil {
				return err
			}
		}
		return r.fillChildren(ctx, s, f.Children())
	case model.KindArray:
		if f.IsArray() {
			return r.fillArray(ctx, s, f)
		}
		return r.fillChildren(ctx, s, f.Children())
	case model.KindHelp:
		labels := render.Localize(d, s.opts)
		text := labels.Description
		if text == "" {
			text = labels.Title
		}
		if text == "" {
			return nil
		}
		return r.driver.Info(ctx, r.theme.InfoPrefix+text)
	case model.KindButton, model.KindSubmit, model.KindHidden:
		return nil
	}

	if !d.HasKey() {
		return nil
	}
	return r.ask(ctx, s, f)
}

func (r *Renderer) fillChildren(ctx context.Context, s *session, children []*field.Field) error {
	for _, child := range children {
		if err := r.fillField(ctx, s, child); err != nil {
			return err
		}
	}
	return nil
}

// fillArray walks the existing elements, then offers to append new ones until
// the user declines.
func (r *Renderer) fillArray(ctx context.Context, s *session, f *field.Field) error {
	labels := render.Localize(f.Descriptor(), s.opts)
	for i := 0; i < f.Len(); i++ {
		if err := r.fillChildren(ctx, s, f.Element(i)); err != nil {
			return err
		}
	}

	addLabel := f.Descriptor().Hints["add"]
	if addLabel == "" {
		addLabel = "Add an item"
	}
	message := addLabel
	if labels.Title != "" {
		message = fmt.Sprintf("%s to %s?", addLabel, labels.Title)
	}
	for {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: labels.HelpText})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		elem, err := s.ctrl.AppendItem(f.ID(), nil)
		if err != nil {
			return err
		}
		index := f.Len() - 1
		if err := r.fillChildren(ctx, s, elem); err != nil {
			return err
		}
		value, _ := s.ctrl.Model().Get(f.Descriptor().Key.Append(keypath.Index(index)))
		if value == nil {
			if err := s.ctrl.RemoveItem(f.ID(), index); err != nil {
				return err
			}
		}
	}
}

// ask prompts for one bound field until its value passes the checks or the
// attempt bound is reached.
func (r *Renderer) ask(ctx context.Context, s *session, f *field.Field) error {
	d := f.Descriptor()
	labels := render.Localize(d, s.opts)
	message := labels.Title
	if message == "" {
		message = d.Key.Dotted()
	}
	help := labels.HelpText
	if help == "" {
		help = labels.Description
	}

	for attempt := 1; ; attempt++ {
		answered, err := r.prompt(ctx, s, f, message, help, labels.Placeholder)
		if err != nil {
			return err
		}
		if answered {
			r.check(s.ctrl, f)
		}
		if !f.HasError() {
			return nil
		}

		msgs, err := f.ErrorMessages()
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
				return err
			}
		}
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, d.Key.Dotted())
		}
	}
}

// prompt asks once and stores the answer. It reports false when nothing was
// stored, which happens for empty optional answers and unparsable numbers.
func (r *Renderer) prompt(ctx context.Context, s *session, f *field.Field, message, help, placeholder string) (bool, error) {
	d := f.Descriptor()
	current := f.ViewValue()

	switch d.Kind() {
	case model.KindCheckbox:
		checked, _ := f.ModelValue().(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: checked, Help: help})
		if err != nil {
			return false, err
		}
		return true, r.store(s, f, answer, answer)

	case model.KindSelect, model.KindRadios:
		names := choiceNames(d.Choices)
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      names,
			DefaultIndex: choiceIndex(d.Choices, f.ModelValue()),
			Help:         help,
		})
		if err != nil {
			return false, err
		}
		if idx < 0 || idx >= len(d.Choices) {
			return false, fmt.Errorf("tui: selection %d out of range for %s", idx, d.Key.Dotted())
		}
		value := d.Choices[idx].Value
		return true, r.store(s, f, value, value)

	case model.KindCheckboxes:
		names := choiceNames(d.Choices)
		selected, _ := f.ModelValue().([]any)
		checked := field.ListToCheckboxValues(selected)
		var defaults []int
		for i, choice := range d.Choices {
			if checked[fmt.Sprint(choice.Value)] {
				defaults = append(defaults, i)
			}
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  names,
			Defaults: defaults,
			Help:     help,
		})
		if err != nil {
			return false, err
		}
		values := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(d.Choices) {
				values = append(values, d.Choices[idx].Value)
			}
		}
		return true, r.store(s, f, values, values)

	case model.KindNumber:
		input, err := r.driver.Input(ctx, InputConfig{Message: message, Default: scalarText(current), Help: help, Placeholder: placeholder})
		if err != nil {
			return false, err
		}
		input = strings.TrimSpace(input)
		key := d.Key.Dotted()
		if input == "" {
			if d.Required {
				s.ctrl.RaiseError(field.Invalid(key, "required", ""))
				return false, nil
			}
			r.clear(s, f)
			return false, nil
		}
		parsed, err := strconv.ParseFloat(input, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			s.ctrl.RaiseError(field.Invalid(key, "number", ""))
			return false, nil
		}
		s.ctrl.RaiseError(field.Valid(key, "number"))
		return true, r.store(s, f, input, parsed)
	}

	cfg := InputConfig{Message: message, Default: scalarText(current), Help: help, Placeholder: placeholder}
	var (
		input string
		err   error
	)
	switch d.Kind() {
	case model.KindTextarea:
		input, err = r.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: cfg.Default, Help: help})
	case model.KindPassword:
		input, err = r.driver.Password(ctx, cfg)
	default:
		input, err = r.driver.Input(ctx, cfg)
	}
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(input) == "" && !d.Required {
		r.clear(s, f)
		return false, nil
	}
	return true, r.store(s, f, input, input)
}

// clear drops an optional answer the user left empty, with any errors an
// earlier answer raised.
func (r *Renderer) clear(s *session, f *field.Field) {
	d := f.Descriptor()
	if d.Key.Last().Kind == keypath.SegmentIndex {
		// deleting would shift the array under the mounted elements
		_ = s.ctrl.Model().Set(d.Key, nil)
	} else {
		s.ctrl.Model().Delete(d.Key)
	}
	for _, code := range f.State().Errors {
		s.ctrl.RaiseError(field.Valid(d.Key.Dotted(), code))
	}
}

type viewSetter interface {
	SetViewValue(view, parsed any) error
}

func (r *Renderer) store(s *session, f *field.Field, view, parsed any) error {
	if setter, ok := f.Value().(viewSetter); ok {
		return setter.SetViewValue(view, parsed)
	}
	return s.ctrl.Model().Set(f.Descriptor().Key, parsed)
}

// check raises error events for the stored answer, through the validator when
// one is configured and from the descriptor's rules otherwise.
func (r *Renderer) check(ctrl *field.Controller, f *field.Field) {
	if r.validator != nil {
		res := r.validator.Apply(ctrl)
		r.logger.Debug("tui: validated", "field_id", f.ID(), "issues", len(res.Issues))
		return
	}
	key := f.Descriptor().Key.Dotted()
	for code, ok := range ruleResults(f.Descriptor(), f.ModelValue()) {
		if ok {
			ctrl.RaiseError(field.Valid(key, code))
		} else {
			ctrl.RaiseError(field.Invalid(key, code, ""))
		}
	}
}

// ruleResults evaluates the descriptor's validation rules against value,
// keyed by the error code each rule raises.
func ruleResults(d *model.Descriptor, value any) map[string]bool {
	out := make(map[string]bool, len(d.Validations))
	for _, rule := range d.Validations {
		switch rule.Kind {
		case model.ValidationRuleRequired:
			out["required"] = !emptyAnswer(value)
		case model.ValidationRuleMin, model.ValidationRuleMax:
			n, isNum := value.(float64)
			bound, err := strconv.ParseFloat(rule.Params["value"], 64)
			if !isNum || err != nil {
				continue
			}
			exclusive := rule.Params["exclusive"] == "true"
			if rule.Kind == model.ValidationRuleMin {
				if exclusive {
					out["exclusiveMinimum"] = n > bound
				} else {
					out["minimum"] = n >= bound
				}
				continue
			}
			if exclusive {
				out["exclusiveMaximum"] = n < bound
			} else {
				out["maximum"] = n <= bound
			}
		case model.ValidationRuleStep:
			n, isNum := value.(float64)
			step, err := strconv.ParseFloat(rule.Params["value"], 64)
			if !isNum || err != nil || step <= 0 {
				continue
			}
			q := n / step
			out["multipleOf"] = math.Abs(q-math.Round(q)) < 1e-9
		case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
			text, isText := value.(string)
			limit, err := strconv.Atoi(rule.Params["value"])
			if !isText || err != nil {
				continue
			}
			n := utf8.RuneCountInString(text)
			if rule.Kind == model.ValidationRuleMinLength {
				out["minLength"] = n >= limit
			} else {
				out["maxLength"] = n <= limit
			}
		case model.ValidationRulePattern:
			text, isText := value.(string)
			re, err := regexp.Compile(rule.Params["pattern"])
			if !isText || err != nil {
				continue
			}
			out["pattern"] = re.MatchString(text)
		}
	}
	return out
}

func emptyAnswer(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	default:
		return false
	}
}

func choiceNames(choices []model.Choice) []string {
	out := make([]string, len(choices))
	for i, choice := range choices {
		out[i] = choice.Name
		if out[i] == "" {
			out[i] = fmt.Sprint(choice.Value)
		}
	}
	return out
}

func choiceIndex(choices []model.Choice, value any) int {
	if value == nil {
		return -1
	}
	want := fmt.Sprint(value)
	for i, choice := range choices {
		if fmt.Sprint(choice.Value) == want {
			return i
		}
	}
	return -1
}

func scalarText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool, int, int64:
		return fmt.Sprint(typed)
	default:
		return ""
	}
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return gojson.Marshal(values)
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			flatten(next, val, out)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", scalarText(val))
		}
	default:
		out.Set(prefix, scalarText(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			writePretty(b, next, v[key])
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%s\n", prefix, scalarText(v))
		}
	}
}

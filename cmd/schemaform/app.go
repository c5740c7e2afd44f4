package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	schemaform "github.com/goliatone/go-schemaform"
	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/openapi"
	"github.com/goliatone/go-schemaform/pkg/orchestrator"
	"github.com/goliatone/go-schemaform/pkg/render"
	"github.com/goliatone/go-schemaform/pkg/renderers/tui"
	"github.com/goliatone/go-schemaform/pkg/schema"
	"github.com/goliatone/go-schemaform/pkg/validation"
	"github.com/goliatone/go-schemaform/pkg/widgets"
)

const envPrefix = "SCHEMAFORM_"

var (
	errSchemaRequired = errors.New("a schema path argument is required")
	errModelRequired  = errors.New("--model is required")
	// errInvalidModel is returned by validate after the report is written.
	errInvalidModel  = errors.New("model is invalid")
	errInvalidSchema = errors.New("schema cannot drive a form")
)

type appEnv struct {
	stdout io.Writer
	stderr io.Writer
	// driver replaces the survey prompts of the fill command.
	driver tui.PromptDriver
}

type app struct {
	env    appEnv
	logger *slog.Logger
}

func newApp(env appEnv) *cli.Command {
	if env.stdout == nil {
		env.stdout = io.Discard
	}
	if env.stderr == nil {
		env.stderr = io.Discard
	}
	a := &app{env: env, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	return &cli.Command{
		Name:      "schemaform",
		Usage:     "resolve, render, validate and fill JSON Schema forms",
		Writer:    env.stdout,
		ErrWriter: env.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars(envPrefix + "LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format (text, json)",
				Sources: cli.EnvVars(envPrefix + "LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "layouts",
				Usage:   "directory of named layout files",
				Sources: cli.EnvVars(envPrefix + "LAYOUTS"),
			},
			&cli.StringFlag{
				Name:    "preset",
				Usage:   "preset file patching resolved fields by key",
				Sources: cli.EnvVars(envPrefix + "PRESET"),
			},
			&cli.StringFlag{
				Name:    "lang",
				Value:   "en",
				Usage:   "language of validation messages",
				Sources: cli.EnvVars(envPrefix + "LANG"),
			},
			&cli.BoolFlag{
				Name:    "widgets",
				Usage:   "apply the built-in widget rules to schema-derived fields",
				Sources: cli.EnvVars(envPrefix + "WIDGETS"),
			},
			&cli.BoolFlag{
				Name:    "assert-formats",
				Usage:   "fail values that do not match their format keyword",
				Sources: cli.EnvVars(envPrefix + "ASSERT_FORMATS"),
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.resolveCommand(),
			a.renderCommand(),
			a.validateCommand(),
			a.fillCommand(),
			a.lintCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger, err := newLogger(cmd.String("log-level"), cmd.String("log-format"), a.env.stderr)
	if err != nil {
		return ctx, err
	}
	a.logger = logger
	return ctx, nil
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "schema format (jsonschema, openapi); detected when empty",
			Sources: cli.EnvVars(envPrefix + "SCHEMA_FORMAT"),
		},
		&cli.StringFlag{Name: "component", Usage: "OpenAPI components.schemas entry"},
		&cli.StringFlag{Name: "operation", Usage: "OpenAPI operationId"},
		&cli.StringFlag{Name: "method", Usage: "OpenAPI operation method, with --path"},
		&cli.StringFlag{Name: "path", Usage: "OpenAPI operation path, with --method"},
		&cli.StringFlag{Name: "media-type", Usage: "OpenAPI request body media type"},
		&cli.StringFlag{Name: "layout", Usage: "named layout from --layouts"},
		&cli.StringFlag{Name: "layout-file", Usage: "JSON or YAML layout file"},
		&cli.StringFlag{Name: "model", Usage: "JSON or YAML model file"},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   outputJSON,
		Usage:   "output format (json, yaml)",
		Sources: cli.EnvVars(envPrefix + "OUTPUT"),
	}
}

func errorsFlag() cli.Flag {
	return &cli.StringFlag{Name: "errors", Usage: "JSON or YAML file of server errors keyed by field"}
}

func (a *app) resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "print the resolved form descriptors",
		ArgsUsage: "<schema>",
		Flags:     append(sourceFlags(), outputFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orch, req, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			form, err := orch.Resolve(ctx, req)
			if err != nil {
				return err
			}
			return writeValue(a.env.stdout, cmd.String("output"), form.Descriptors)
		},
	}
}

func (a *app) renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render the form with a registered renderer",
		ArgsUsage: "<schema>",
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:    "renderer",
				Aliases: []string{"r"},
				Value:   "html",
				Usage:   "renderer name or media type (html, json, text/html)",
				Sources: cli.EnvVars(envPrefix + "RENDERER"),
			},
			&cli.BoolFlag{Name: "validate", Usage: "validate the model and render its errors"},
			&cli.StringFlag{Name: "action", Usage: "form action URL"},
			&cli.StringFlag{Name: "http-method", Value: "POST", Usage: "form submission method"},
			&cli.StringSliceFlag{Name: "hidden", Usage: "extra hidden input as name=value"},
			&cli.StringSliceFlag{Name: "carry", Usage: "model key copied into a hidden input"},
			errorsFlag(),
			&cli.StringFlag{Name: "out", Usage: "write to file instead of stdout"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orch, req, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			serverErrors, err := readErrors(cmd.String("errors"))
			if err != nil {
				return err
			}
			var hidden []render.HiddenField
			for _, pair := range cmd.StringSlice("hidden") {
				h, err := render.ParseHidden(pair)
				if err != nil {
					return err
				}
				hidden = append(hidden, h)
			}
			req.Renderer = cmd.String("renderer")
			req.Validate = cmd.Bool("validate")
			req.RenderOptions = render.RenderOptions{
				Method: cmd.String("http-method"),
				Action: cmd.String("action"),
				Errors: serverErrors,
			}

			output, err := a.generate(ctx, orch, req, hidden, cmd.StringSlice("carry"))
			if err != nil {
				return err
			}
			if target := cmd.String("out"); target != "" {
				if err := os.WriteFile(target, output, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				a.logger.Info("form written", "path", target, "bytes", len(output))
				return nil
			}
			_, err = a.env.stdout.Write(output)
			return err
		},
	}
}

// generate renders req after merging the hidden inputs, including model
// values carried by key, into its render options.
func (a *app) generate(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.Request, hidden []render.HiddenField, carry []string) ([]byte, error) {
	if len(carry) == 0 {
		req.RenderOptions.Hidden = render.MergeHiddenFields(req.RenderOptions.Hidden, hidden...)
		return orch.Generate(ctx, req)
	}
	ctrl, err := orch.Mount(ctx, req)
	if err != nil {
		return nil, err
	}
	carried, err := render.CarryModel(ctrl, carry...)
	ctrl.Teardown()
	if err != nil {
		return nil, err
	}
	req.RenderOptions.Hidden = render.MergeHiddenFields(req.RenderOptions.Hidden, append(carried, hidden...)...)
	return orch.Generate(ctx, req)
}

type validateReport struct {
	Valid     bool               `json:"valid"`
	Issues    []validation.Issue `json:"issues,omitempty"`
	Unmatched []validation.Issue `json:"unmatched,omitempty"`
	// Fields maps dotted keys to the rendered messages of their failing codes.
	Fields map[string][]string `json:"fields,omitempty"`
}

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate a model file against the schema",
		ArgsUsage: "<schema>",
		Flags:     append(sourceFlags(), outputFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orch, req, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			if req.Model == nil {
				return errModelRequired
			}
			form, err := orch.Resolve(ctx, req)
			if err != nil {
				return err
			}
			ctrl, err := field.Mount(form, field.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer ctrl.Teardown()

			v, err := orch.Validator(form.Schema)
			if err != nil {
				return err
			}
			res := v.Apply(ctrl)

			report := validateReport{Valid: res.Valid(), Issues: res.Issues, Unmatched: res.Unmatched}
			for _, f := range ctrl.Fields() {
				if f.Destroyed() || !f.Descriptor().HasKey() || len(f.State().Errors) == 0 {
					continue
				}
				msgs, err := f.ErrorMessages()
				if err != nil {
					return err
				}
				if report.Fields == nil {
					report.Fields = make(map[string][]string)
				}
				key := f.Descriptor().Key.Dotted()
				report.Fields[key] = append(report.Fields[key], msgs...)
			}

			if err := writeValue(a.env.stdout, cmd.String("output"), report); err != nil {
				return err
			}
			if !report.Valid {
				return errInvalidModel
			}
			return nil
		},
	}
}

func (a *app) fillCommand() *cli.Command {
	return &cli.Command{
		Name:      "fill",
		Usage:     "fill the form interactively and print the model",
		ArgsUsage: "<schema>",
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:    "output-format",
				Value:   string(tui.OutputFormatJSON),
				Usage:   "model output (json, form, pretty)",
				Sources: cli.EnvVars(envPrefix + "FILL_OUTPUT"),
			},
			&cli.BoolFlag{Name: "validate", Usage: "check answers against the whole schema"},
			&cli.IntFlag{Name: "max-attempts", Usage: "give up after this many invalid answers per field (0 is unlimited)"},
			errorsFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orch, req, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			serverErrors, err := readErrors(cmd.String("errors"))
			if err != nil {
				return err
			}
			ctrl, err := orch.Mount(ctx, req)
			if err != nil {
				return err
			}
			defer ctrl.Teardown()

			options := []tui.Option{
				tui.WithOutput(a.env.stderr),
				tui.WithOutputFormat(tui.OutputFormat(cmd.String("output-format"))),
				tui.WithMaxAttempts(int(cmd.Int("max-attempts"))),
				tui.WithLogger(a.logger),
			}
			if a.env.driver != nil {
				options = append(options, tui.WithPromptDriver(a.env.driver))
			}
			if cmd.Bool("validate") {
				v, err := orch.Validator(ctrl.Form().Schema)
				if err != nil {
					return err
				}
				options = append(options, tui.WithValidator(v))
			}
			host, err := tui.New(options...)
			if err != nil {
				return err
			}

			output, err := host.Render(ctx, ctrl, render.RenderOptions{Errors: serverErrors})
			if err != nil {
				return err
			}
			if len(output) > 0 && output[len(output)-1] != '\n' {
				output = append(output, '\n')
			}
			_, err = a.env.stdout.Write(output)
			return err
		},
	}
}

type lintReport struct {
	File string `json:"file"`
	validation.SchemaCheck
}

func (a *app) lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "check that JSON Schema documents can drive a form",
		ArgsUsage: "<schema>...",
		Flags:     []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errSchemaRequired
			}
			loader := schemaform.NewLoader()
			reports := make([]lintReport, 0, len(paths))
			valid := true
			for _, path := range paths {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				check := validation.CheckSchema(ctx, schema.SourceFromFile(path), raw, validation.SchemaCheckOptions{Loader: loader})
				if !check.Valid {
					valid = false
					for _, issue := range check.Issues {
						a.logger.Warn("schema issue", "file", path, "path", issue.Path, "field", issue.Field, "message", issue.Message)
					}
				}
				reports = append(reports, lintReport{File: path, SchemaCheck: check})
			}
			if err := writeValue(a.env.stdout, cmd.String("output"), reports); err != nil {
				return err
			}
			if !valid {
				return errInvalidSchema
			}
			return nil
		},
	}
}

// prepare builds the pipeline from the global flags and the request from the
// command flags and schema argument.
func (a *app) prepare(cmd *cli.Command) (*orchestrator.Orchestrator, orchestrator.Request, error) {
	options := []orchestrator.Option{orchestrator.WithLogger(a.logger)}

	if dir := cmd.String("layouts"); dir != "" {
		options = append(options, orchestrator.WithLayoutFS(os.DirFS(dir), "."))
	}
	if preset := cmd.String("preset"); preset != "" {
		t, err := orchestrator.NewPresetTransformerFromFS(os.DirFS(filepath.Dir(preset)), filepath.Base(preset))
		if err != nil {
			return nil, orchestrator.Request{}, err
		}
		options = append(options, orchestrator.WithSchemaTransformer(t))
	}

	if cmd.Bool("widgets") {
		options = append(options, orchestrator.WithWidgetRegistry(widgets.NewRegistry()))
	}

	var validatorOpts []validation.Option
	if lang := cmd.String("lang"); lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, orchestrator.Request{}, fmt.Errorf("lang %q: %w", lang, err)
		}
		validatorOpts = append(validatorOpts, validation.WithLanguage(tag))
	}
	if cmd.Bool("assert-formats") {
		validatorOpts = append(validatorOpts, validation.WithFormatAssertions())
	}
	options = append(options, orchestrator.WithValidatorOptions(validatorOpts...))

	req, err := requestFrom(cmd)
	if err != nil {
		return nil, orchestrator.Request{}, err
	}
	return orchestrator.New(options...), req, nil
}

func requestFrom(cmd *cli.Command) (orchestrator.Request, error) {
	path := strings.TrimSpace(cmd.Args().First())
	if path == "" {
		return orchestrator.Request{}, errSchemaRequired
	}
	layout, err := readLayout(cmd.String("layout-file"))
	if err != nil {
		return orchestrator.Request{}, err
	}
	model, err := readModel(cmd.String("model"))
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{
		Source: schema.SourceFromFile(path),
		Format: cmd.String("format"),
		Selector: openapi.Selector{
			Component:   cmd.String("component"),
			OperationID: cmd.String("operation"),
			Method:      cmd.String("method"),
			Path:        cmd.String("path"),
			MediaType:   cmd.String("media-type"),
		},
		Layout:     layout,
		LayoutName: cmd.String("layout"),
		Model:      model,
	}, nil
}

func readErrors(path string) (map[string][]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read errors: %w", err)
	}
	var out map[string][]string
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse errors %s: %w", path, err)
	}
	return out, nil
}

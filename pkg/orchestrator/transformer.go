package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-schemaform/pkg/model"
)

// Transformer rewrites resolved descriptors before ids are assigned.
type Transformer interface {
	Transform(ctx context.Context, descriptors []*model.Descriptor) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, descriptors []*model.Descriptor) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, descriptors []*model.Descriptor) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, descriptors)
}

// PresetTransformer applies declarative patches keyed by dotted field key.
// Documents are JSON or YAML:
//
//	fields:
//	  title:
//	    title: Custom Title
//	    hints: {helpText: Shown below the input}
//	  tags.[]:
//	    placeholder: tag
//
// Array item templates are addressed with "[]" in place of the index.
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Fields map[string]fieldPatch `json:"fields" yaml:"fields"`
}

type fieldPatch struct {
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description" yaml:"description"`
	Placeholder string            `json:"placeholder" yaml:"placeholder"`
	Condition   string            `json:"condition" yaml:"condition"`
	ReadOnly    *bool             `json:"readonly" yaml:"readonly"`
	Hints       map[string]string `json:"hints" yaml:"hints"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	var err error
	if trimmed[0] == '{' {
		err = gojson.Unmarshal(trimmed, &document)
	} else {
		err = yaml.Unmarshal(trimmed, &document)
	}
	if err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform patches every descriptor whose key matches a preset entry. An
// entry matching nothing fails.
func (t *PresetTransformer) Transform(ctx context.Context, descriptors []*model.Descriptor) error {
	keys := make([]string, 0, len(t.document.Fields))
	for key := range t.document.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		matched := 0
		model.Walk(descriptors, func(d *model.Descriptor) bool {
			if d.HasKey() && d.Key.Dotted() == key {
				applyFieldPatch(d, t.document.Fields[key])
				matched++
			}
			return true
		})
		if matched == 0 {
			return fmt.Errorf("preset transformer: field %q not found", key)
		}
	}
	return nil
}

func applyFieldPatch(d *model.Descriptor, patch fieldPatch) {
	if patch.Title != "" {
		d.Title = patch.Title
	}
	if patch.Description != "" {
		d.Description = patch.Description
	}
	if patch.Placeholder != "" {
		d.Placeholder = patch.Placeholder
	}
	if patch.Condition != "" {
		d.Condition = patch.Condition
	}
	if patch.ReadOnly != nil {
		d.ReadOnly = *patch.ReadOnly
	}
	if len(patch.Hints) > 0 {
		d.Hints = mergeStringMap(d.Hints, patch.Hints)
	}
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

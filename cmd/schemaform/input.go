package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-schemaform/pkg/uischema"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// readModel loads a JSON or YAML model file. Values are normalized through
// JSON so numbers decode as float64 like every other model source.
func readModel(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if decoded == nil {
		return map[string]any{}, nil
	}
	data, err := gojson.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	var out map[string]any
	if err := gojson.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("model %s must be an object: %w", path, err)
	}
	return out, nil
}

func readLayout(path string) (uischema.Layout, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	layout, err := uischema.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return layout, nil
}

// writeValue encodes value as indented JSON or YAML.
func writeValue(w io.Writer, format string, value any) error {
	data, err := gojson.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	switch strings.ToLower(format) {
	case "", outputJSON:
		_, err = w.Write(append(data, '\n'))
		return err
	case outputYAML:
		// Go through the JSON form so json tags and text marshalers apply.
		var generic any
		if err := gojson.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

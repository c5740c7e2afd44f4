package expr

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var (
	interpOnce sync.Once
	interpSet  *pongo2.TemplateSet
	interpMu   sync.Mutex
	interpTpls = map[string]*pongo2.Template{}
)

func templateSet() *pongo2.TemplateSet {
	interpOnce.Do(func() {
		interpSet = pongo2.NewSet("schemaform-interp", pongo2.MustNewLocalFileSystemLoader(""))
	})
	return interpSet
}

// Interp renders template with locals using {{ }} placeholders. Output is not
// HTML escaped; renderers escape at the markup boundary. An empty template
// yields an empty string.
func Interp(template string, locals map[string]any) (string, error) {
	if template == "" {
		return "", nil
	}
	if !strings.Contains(template, "{{") && !strings.Contains(template, "{%") {
		return template, nil
	}

	tpl, err := compileTemplate(template)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(templateContext(locals), &buf); err != nil {
		return "", fmt.Errorf("expr: interpolate: %w", err)
	}
	return buf.String(), nil
}

func compileTemplate(template string) (*pongo2.Template, error) {
	interpMu.Lock()
	defer interpMu.Unlock()
	if tpl, ok := interpTpls[template]; ok {
		return tpl, nil
	}
	tpl, err := templateSet().FromString("{% autoescape off %}" + template + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("expr: parse template: %w", err)
	}
	interpTpls[template] = tpl
	return tpl, nil
}

// templateContext copies locals, turning integral floats into int64 so decoded
// JSON numbers print as 150 instead of 150.000000.
func templateContext(locals map[string]any) pongo2.Context {
	out := make(pongo2.Context, len(locals))
	for key, value := range locals {
		out[key] = displayValue(value)
	}
	return out
}

func displayValue(value any) any {
	switch typed := value.(type) {
	case float64:
		if typed == math.Trunc(typed) && math.Abs(typed) < 1<<53 {
			return int64(typed)
		}
		return typed
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = displayValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = displayValue(item)
		}
		return out
	default:
		return value
	}
}

package decorators

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/model"
)

//go:embed templates
var builtinFS embed.FS

const fragmentDir = "templates/fragments"

var (
	inputLayout    = []string{"open", "label", "input", "description", "errors", "close"}
	textareaLayout = []string{"open", "label", "textarea", "description", "errors", "close"}
	checkboxLayout = []string{"open", "checkbox", "description", "errors", "close"}
)

// builtinLayouts lists the fragments each built-in decorator is assembled
// from. Kinds missing here have a standalone template under templates/.
var builtinLayouts = map[model.Kind][]string{
	model.KindText:       inputLayout,
	model.KindNumber:     inputLayout,
	model.KindDate:       inputLayout,
	model.KindDateTime:   inputLayout,
	model.KindEmail:      inputLayout,
	model.KindURL:        inputLayout,
	model.KindPassword:   inputLayout,
	model.KindGeneric:    inputLayout,
	model.KindHidden:     {"input"},
	model.KindTextarea:   textareaLayout,
	model.KindCheckbox:   checkboxLayout,
	model.KindCheckboxes: {"open", "label", "checkboxes", "description", "errors", "close"},
	model.KindRadios:     {"open", "label", "radios", "description", "errors", "close"},
	model.KindSelect:     {"open", "label", "select", "description", "errors", "close"},
}

// BuiltinFS exposes the embedded templates.
func BuiltinFS() fs.FS {
	sub, err := fs.Sub(builtinFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

func loadBuiltinFragments() (map[string]string, error) {
	entries, err := fs.ReadDir(builtinFS, fragmentDir)
	if err != nil {
		return nil, fmt.Errorf("decorators: read builtin fragments: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".html" {
			continue
		}
		raw, err := fs.ReadFile(builtinFS, path.Join(fragmentDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("decorators: read fragment %s: %w", entry.Name(), err)
		}
		out[strings.TrimSuffix(entry.Name(), ".html")] = string(raw)
	}
	return out, nil
}

func loadBuiltins(fragments map[string]string) (map[string]Template, error) {
	out := make(map[string]Template, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		name := string(kind)
		if layout, ok := builtinLayouts[kind]; ok {
			source, err := compose(fragments, layout)
			if err != nil {
				return nil, fmt.Errorf("decorators: builtin %s: %w", name, err)
			}
			out[name] = Template{Type: name, Name: "builtin:" + name, Source: source, Origin: OriginBuiltin}
			continue
		}
		file := path.Join("templates", name+".html")
		raw, err := fs.ReadFile(builtinFS, file)
		if err != nil {
			return nil, fmt.Errorf("decorators: builtin %s: %w", name, err)
		}
		out[name] = Template{Type: name, Name: "builtin:" + name, Source: string(raw), Origin: OriginBuiltin}
	}
	return out, nil
}

func compose(fragments map[string]string, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("at least one fragment is required")
	}
	var b strings.Builder
	for _, name := range names {
		source, ok := fragments[name]
		if !ok {
			return "", fmt.Errorf("unknown fragment %q", name)
		}
		b.WriteString(source)
	}
	return b.String(), nil
}

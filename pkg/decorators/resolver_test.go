package decorators

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
)

func TestResolveBuiltinsForEveryKind(t *testing.T) {
	t.Parallel()

	r := MustNewResolver()
	for _, kind := range model.Kinds() {
		tpl, err := r.Resolve(string(kind))
		if err != nil {
			t.Fatalf("resolve %s: %v", kind, err)
		}
		if tpl.Origin != OriginBuiltin || tpl.Source == "" {
			t.Fatalf("expected builtin source for %s, got %+v", kind, tpl)
		}
	}

	text, _ := r.Resolve("text")
	if !strings.Contains(text.Source, `class="sf-input"`) || !strings.Contains(text.Source, `class="sf-label"`) {
		t.Fatalf("text decorator not composed from fragments:\n%s", text.Source)
	}
}

func TestResolveLookupOrder(t *testing.T) {
	t.Parallel()

	selection := &theme.Selection{
		Theme:   "acme",
		Variant: "dark",
		Manifest: &theme.Manifest{
			Name:    "acme",
			Version: "1.0.0",
			Templates: map[string]string{
				"decorators.text":     "acme/text.html",
				"decorators.textarea": "acme/textarea.html",
				"forms.input":         "acme/unrelated.html",
			},
			Variants: map[string]theme.Variant{
				"dark": {Templates: map[string]string{"decorators.textarea": "acme/dark/textarea.html"}},
			},
		},
	}
	files := fstest.MapFS{
		"acme/text.html":          {Data: []byte("<acme-text>")},
		"acme/dark/textarea.html": {Data: []byte("<acme-dark-textarea>")},
	}

	r := MustNewResolver(WithTheme(selection), WithThemeFS(files))
	if err := r.Register("text", "<override-text>"); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		typeName string
		want     Template
	}{
		{"text", Template{Type: "text", Name: "override:text", Source: "<override-text>", Origin: OriginOverride}},
		{"textarea", Template{Type: "textarea", Name: "acme/dark/textarea.html", Source: "<acme-dark-textarea>", Origin: OriginTheme}},
	}
	for _, tc := range cases {
		got, err := r.Resolve(tc.typeName)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.typeName, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("resolve %s mismatch (-want +got):\n%s", tc.typeName, diff)
		}
	}

	number, err := r.Resolve("number")
	if err != nil || number.Origin != OriginBuiltin {
		t.Fatalf("expected builtin number, got %+v, %v", number, err)
	}

	custom, err := r.Resolve("color-wheel")
	if err != nil {
		t.Fatalf("resolve unknown type: %v", err)
	}
	if custom.Origin != OriginFallback || custom.Type != "color-wheel" || custom.Name != "builtin:generic" {
		t.Fatalf("expected generic fallback, got %+v", custom)
	}
}

func TestResolveWithoutFallbackFails(t *testing.T) {
	t.Parallel()

	r := MustNewResolver(WithoutBuiltins(), WithFallback(""))
	_, err := r.Resolve("text")
	var resErr DecoratorResolutionError
	if !errors.As(err, &resErr) || resErr.Type != "text" {
		t.Fatalf("expected DecoratorResolutionError for text, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()

	r := MustNewResolver()
	if err := r.Register("rating", "<stars>"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("rating", "<again>"); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := r.Register("", "<x>"); err == nil {
		t.Fatalf("expected missing type error")
	}
	if err := r.Register("empty", "  "); err == nil {
		t.Fatalf("expected empty template error")
	}
}

func TestComposeFragments(t *testing.T) {
	t.Parallel()

	r := MustNewResolver(WithFragments(map[string]string{"stars": "<stars/>"}))
	if err := r.RegisterComposed("rating", "open", "label", "stars", "close"); err != nil {
		t.Fatalf("register composed: %v", err)
	}
	tpl, err := r.Resolve("rating")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(tpl.Source, "<div class=\"sf-field") || !strings.Contains(tpl.Source, "<stars/>") || !strings.HasSuffix(tpl.Source, "</div>\n") {
		t.Fatalf("unexpected composed source:\n%s", tpl.Source)
	}

	if _, err := r.Compose("open", "missing"); err == nil {
		t.Fatalf("expected unknown fragment error")
	}
	if _, err := r.Compose(); err == nil {
		t.Fatalf("expected error for empty composition")
	}
}

func TestResolveAllSurfacesFirstFailure(t *testing.T) {
	t.Parallel()

	descriptors := []*model.Descriptor{
		{Type: "fieldset", Items: []*model.Descriptor{
			{Type: "text", Key: keypath.New("a")},
			{Type: "rating", Key: keypath.New("b")},
		}},
	}

	strict := MustNewResolver(WithFallback(""))
	if err := strict.Decorate(descriptors); err == nil {
		t.Fatalf("expected unresolved rating")
	}

	lenient := MustNewResolver()
	got, err := lenient.ResolveAll(descriptors)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if diff := cmp.Diff([]string{"fieldset", "rating", "text"}, sortedKeys(got)); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
}

func sortedKeys(in map[string]Template) []string {
	out := make([]string, 0, len(in))
	for key := range in {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

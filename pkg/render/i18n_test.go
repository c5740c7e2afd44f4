package render_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalizeUsesKeysAndFallbacks(t *testing.T) {
	t.Parallel()
	d := &model.Descriptor{
		Title:       "Name",
		Placeholder: "Enter name",
		Hints: map[string]string{
			"labelKey":       "fields.thing.name",
			"placeholderKey": "fields.thing.name.placeholder",
			"helpText":       "Used for display",
			"helpTextKey":    "fields.thing.name.help",
		},
		Extra: map[string]any{"descriptionKey": "fields.thing.name.description"},
	}

	got := render.Localize(d, render.RenderOptions{
		Locale: "es",
		Translator: stubTranslator{
			"fields.thing.name":             "Nombre",
			"fields.thing.name.description": "Nombre visible",
		},
	})

	want := render.Labels{
		Title:       "Nombre",
		Description: "Nombre visible",
		Placeholder: "Enter name",
		HelpText:    "Used for display",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if d.Title != "Name" {
		t.Fatalf("descriptor mutated: %q", d.Title)
	}
}

func TestLocalizeWithoutTranslator(t *testing.T) {
	t.Parallel()
	d := &model.Descriptor{Hints: map[string]string{"labelKey": "fields.code"}}

	if got := render.Localize(d, render.RenderOptions{}).Title; got != "fields.code" {
		t.Fatalf("title = %q, want key fallback", got)
	}

	var gotErr error
	got := render.Localize(d, render.RenderOptions{
		OnMissing: func(locale, key string, _ []any, err error) string {
			gotErr = err
			return "[" + key + "]"
		},
	})
	if got.Title != "[fields.code]" {
		t.Fatalf("title = %q", got.Title)
	}
	if !errors.Is(gotErr, render.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
}

func TestHTMLRendersTranslatedLabels(t *testing.T) {
	t.Parallel()
	ctrl := mount(t, taskSchema, `[{"key": "title", "labelKey": "task.title"}]`, taskModel())

	out := renderHTML(t, ctrl, render.RenderOptions{
		Locale:     "fr",
		Translator: stubTranslator{"task.title": "Titre"},
	})

	assertContains(t, out, `lang="fr"`, `>Titre<span class="sf-required"`)
}

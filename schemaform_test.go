package schemaform_test

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	schemaform "github.com/goliatone/go-schemaform"
	"github.com/goliatone/go-schemaform/pkg/orchestrator"
	"github.com/goliatone/go-schemaform/pkg/schema"
	"github.com/goliatone/go-schemaform/pkg/testsupport"
)

func TestGenerateHTML(t *testing.T) {
	t.Parallel()
	out, err := schemaform.GenerateHTML(context.Background(),
		schema.SourceFromFS(testsupport.ProfileSchema),
		orchestrator.WithFileSystem(testsupport.FixturesFS()),
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `name="address.city"`) {
		t.Fatalf("expected nested field in output:\n%s", out)
	}
}

func TestNewLoaderReadsFS(t *testing.T) {
	t.Parallel()
	loader := schemaform.NewLoader(schema.WithFileSystem(testsupport.FixturesFS()))
	doc, err := loader.Load(context.Background(), schema.SourceFromFS(testsupport.PetstoreSchema))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(string(doc.Raw()), "createPet") {
		t.Fatalf("unexpected document %s", doc.Raw())
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	t.Parallel()
	entries, err := fs.ReadDir(schemaform.EmbeddedTemplates(), ".")
	if err != nil {
		t.Fatalf("read templates: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected built-in templates")
	}
}

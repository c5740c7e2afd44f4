package schemaform

import (
	schemaloader "github.com/goliatone/go-schemaform/internal/jsonschema/loader"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// NewLoader constructs the file and fs.FS document loader while keeping the
// concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return schemaloader.New(schema.NewLoaderOptions(options...))
}

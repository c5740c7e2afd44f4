package schemaform

import (
	"io/fs"

	"github.com/goliatone/go-schemaform/pkg/decorators"
)

// EmbeddedTemplates exposes the built-in decorator templates so callers can
// reuse or extend them without importing the decorators package directly.
func EmbeddedTemplates() fs.FS {
	return decorators.BuiltinFS()
}

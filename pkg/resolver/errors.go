package resolver

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-schemaform/pkg/keypath"
)

// ErrNilSchema is returned when Resolve is called without a schema.
var ErrNilSchema = errors.New("resolver: schema is nil")

// SchemaReferenceError reports a layout key that matches no schema field.
type SchemaReferenceError struct {
	Key keypath.Path
}

func (e SchemaReferenceError) Error() string {
	return fmt.Sprintf("resolver: layout references unknown field %q", e.Key.String())
}

package decorators

import "fmt"

// DecoratorResolutionError reports a type with no override, theme template,
// built-in or fallback.
type DecoratorResolutionError struct {
	Type string
}

func (e DecoratorResolutionError) Error() string {
	return fmt.Sprintf("decorators: no decorator registered for type %q", e.Type)
}

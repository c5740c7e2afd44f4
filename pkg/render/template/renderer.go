package template

import "io"

// Engine is what the HTML renderer needs from a template backend: compile
// a source once under a name, then execute named templates. Executing also
// copies the output to every writer in out.
type Engine interface {
	Compile(name, source string) error
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// StringRenderer is implemented by engines that can execute a source
// without caching it.
type StringRenderer interface {
	RenderString(source string, data any, out ...io.Writer) (string, error)
}

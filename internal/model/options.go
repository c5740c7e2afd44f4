package model

// Options configures the Walker. The public adapter in pkg/model builds them.
type Options struct {
	Labeler func(string) string
	// TextareaThreshold turns string fields whose maxLength exceeds it into
	// textareas. Zero disables the promotion.
	TextareaThreshold int
	// Widget may replace the type derived from the schema. Hints still win.
	Widget func(*Descriptor) (string, bool)
}

func defaultOptions() Options {
	return Options{
		Labeler:           DefaultLabeler,
		TextareaThreshold: 255,
	}
}

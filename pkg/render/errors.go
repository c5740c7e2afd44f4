package render

import (
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/keypath"
)

// ServerErrorCode is the error code server-side messages are raised under.
const ServerErrorCode = "server"

// ErrorMapping splits a server error payload into messages per dotted field
// key and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Leading segments servers commonly nest request bodies under.
var envelopeSegments = map[string]bool{
	"body":       true,
	"request":    true,
	"payload":    true,
	"data":       true,
	"attributes": true,
}

var formLevelKeys = map[string]bool{
	"":                 true,
	".":                true,
	"/":                true,
	"#":                true,
	"$":                true,
	"form":             true,
	"base":             true,
	"__all__":          true,
	"non_field_errors": true,
	"non-field-errors": true,
}

// MergeFormErrors concatenates form-level messages, trimming and dropping
// duplicates in order.
func MergeFormErrors(existing []string, extras ...string) []string {
	return normalizeMessages(slices.Concat(existing, extras))
}

// MapErrorPayload matches payload paths (dotted, bracketed or JSON pointer,
// optionally under a body/request/data envelope) against the keys of the
// mounted fields. The longest bound key wins; unknown paths become form-level
// messages.
func MapErrorPayload(ctrl *field.Controller, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	bound := boundKeys(ctrl)

	for _, raw := range slices.Sorted(maps.Keys(payload)) {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		key, ok := matchBoundKey(errorPathSegments(raw), bound)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = map[string][]string{}
		}
		mapping.Fields[key] = normalizeMessages(append(mapping.Fields[key], messages...))
	}

	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// RaiseServerErrors raises every mapped field message on ctrl under
// ServerErrorCode and returns how many fields took an error.
func RaiseServerErrors(ctrl *field.Controller, mapping ErrorMapping) int {
	if ctrl == nil {
		return 0
	}
	applied := 0
	for _, key := range slices.Sorted(maps.Keys(mapping.Fields)) {
		msg := strings.Join(mapping.Fields[key], " ")
		applied += ctrl.RaiseError(field.Invalid(key, ServerErrorCode, msg))
	}
	return applied
}

func normalizeMessages(messages []string) []string {
	var out []string
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed != "" && !slices.Contains(out, trimmed) {
			out = append(out, trimmed)
		}
	}
	return out
}

// errorPathSegments splits a payload key into plain segments. Slash
// separated keys are read as JSON pointers; everything else goes through
// the keypath grammar, with a lenient split for names it rejects.
func errorPathSegments(raw string) []string {
	text := strings.TrimSpace(raw)
	if formLevelKeys[strings.ToLower(text)] {
		return nil
	}

	if strings.Contains(text, "/") {
		var out []string
		for _, part := range strings.Split(strings.TrimPrefix(text, "#"), "/") {
			if part == "" {
				continue
			}
			out = append(out, strings.NewReplacer("~1", "/", "~0", "~").Replace(part))
		}
		return out
	}

	text = strings.TrimPrefix(strings.TrimPrefix(text, "$"), ".")
	path, err := keypath.Parse(text)
	if err != nil {
		return strings.FieldsFunc(text, func(r rune) bool {
			return r == '.' || r == '[' || r == ']' || r == '\'' || r == '"'
		})
	}
	out := make([]string, 0, len(path))
	for _, seg := range path {
		if seg.Kind != keypath.SegmentWildcard {
			out = append(out, seg.String())
		}
	}
	return out
}

// matchBoundKey tries the segments as given and then without their envelope
// prefix, returning the longest bound key that prefixes either.
func matchBoundKey(segments []string, bound map[string]bool) (string, bool) {
	unwrapped := segments
	for len(unwrapped) > 1 && envelopeSegments[strings.ToLower(unwrapped[0])] {
		unwrapped = unwrapped[1:]
	}

	best := ""
	for _, candidate := range [][]string{segments, unwrapped} {
		for n := len(candidate); n > 0; n-- {
			key := strings.Join(candidate[:n], ".")
			if bound[key] {
				if len(key) > len(best) {
					best = key
				}
				break
			}
		}
	}
	return best, best != ""
}

func boundKeys(ctrl *field.Controller) map[string]bool {
	out := map[string]bool{}
	if ctrl == nil {
		return out
	}
	for _, f := range ctrl.Fields() {
		if d := f.Descriptor(); d.HasKey() && !d.Key.HasWildcard() {
			out[d.Key.Dotted()] = true
		}
	}
	return out
}

package model

import (
	"fmt"
	"sort"

	gojson "github.com/goccy/go-json"
)

// ValidationMessages holds per-code message overrides. A layout may supply a
// single string instead of a map, in which case it applies to every code.
type ValidationMessages struct {
	All    string
	ByCode map[string]string
}

// MessagesFromValue accepts a string, a map of strings, or nil.
func MessagesFromValue(value any) (ValidationMessages, error) {
	switch typed := value.(type) {
	case nil:
		return ValidationMessages{}, nil
	case string:
		return ValidationMessages{All: typed}, nil
	case map[string]string:
		return ValidationMessages{ByCode: cloneStrings(typed)}, nil
	case map[string]any:
		out := ValidationMessages{ByCode: make(map[string]string, len(typed))}
		for code, raw := range typed {
			text, ok := raw.(string)
			if !ok {
				return ValidationMessages{}, fmt.Errorf("validationMessage %q must be a string", code)
			}
			out.ByCode[code] = text
		}
		return out, nil
	default:
		return ValidationMessages{}, fmt.Errorf("validationMessage must be a string or an object, got %T", value)
	}
}

// IsZero reports whether no message is configured.
func (m ValidationMessages) IsZero() bool {
	return m.All == "" && len(m.ByCode) == 0
}

// Lookup returns the message for code.
func (m ValidationMessages) Lookup(code string) (string, bool) {
	if m.All != "" {
		return m.All, true
	}
	msg, ok := m.ByCode[code]
	return msg, ok
}

// Set records msg under code, creating the map on first use.
func (m *ValidationMessages) Set(code, msg string) {
	if m.ByCode == nil {
		m.ByCode = make(map[string]string)
	}
	m.ByCode[code] = msg
}

// Codes returns the codes with a dedicated message, sorted.
func (m ValidationMessages) Codes() []string {
	codes := make([]string, 0, len(m.ByCode))
	for code := range m.ByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy.
func (m ValidationMessages) Clone() ValidationMessages {
	return ValidationMessages{All: m.All, ByCode: cloneStrings(m.ByCode)}
}

// MarshalJSON emits the string form when a single message applies.
func (m ValidationMessages) MarshalJSON() ([]byte, error) {
	if m.All != "" {
		return gojson.Marshal(m.All)
	}
	if len(m.ByCode) == 0 {
		return []byte("null"), nil
	}
	return gojson.Marshal(m.ByCode)
}

// UnmarshalJSON accepts a string or an object of strings.
func (m *ValidationMessages) UnmarshalJSON(data []byte) error {
	var raw any
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := MessagesFromValue(raw)
	if err != nil {
		return fmt.Errorf("model: decode validation messages: %w", err)
	}
	*m = parsed
	return nil
}

package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-schemaform/pkg/keypath"
)

var lowerCaser = cases.Lower(language.Und)

// DefaultLabeler turns a property name into a label. Underscore, dash and
// space separated parts each start upper case; camelCase humps and
// letter/digit changes inside a part become spaces, so "firstName" reads
// "First name" and "last_name" reads "Last Name".
func DefaultLabeler(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, part := range parts {
		parts[i] = capitalize(lowerCaser.String(splitHumps(part)))
	}
	return strings.Join(parts, " ")
}

// TitleForKey labels a key by its last named segment, skipping trailing
// indices and wildcards. It returns "" when the key has no named segment.
func TitleForKey(key keypath.Path, labeler func(string) string) string {
	if labeler == nil {
		labeler = DefaultLabeler
	}
	for i := len(key) - 1; i >= 0; i-- {
		if key[i].Kind == keypath.SegmentName {
			return labeler(key[i].Name)
		}
	}
	return ""
}

func splitHumps(word string) string {
	var out strings.Builder
	var prev rune
	for i, r := range word {
		if i > 0 && hump(prev, r) {
			out.WriteByte(' ')
		}
		out.WriteRune(r)
		prev = r
	}
	return out.String()
}

func hump(prev, r rune) bool {
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsLetter(prev) && unicode.IsDigit(r):
		return true
	default:
		return unicode.IsDigit(prev) && unicode.IsLetter(r)
	}
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return word
	}
	return string(unicode.ToTitle(first)) + word[size:]
}

package keypath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind distinguishes the three segment flavours a key path can hold.
type SegmentKind uint8

const (
	// SegmentName addresses a mapping entry.
	SegmentName SegmentKind = iota
	// SegmentIndex addresses a sequence element.
	SegmentIndex
	// SegmentWildcard stands for "every element" of a sequence. It only appears
	// in descriptor templates and is replaced by a concrete index at bind time.
	SegmentWildcard
)

// Segment is one step of a key path.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// Name returns a mapping segment.
func Name(name string) Segment {
	return Segment{Kind: SegmentName, Name: name}
}

// Index returns a sequence segment.
func Index(idx int) Segment {
	return Segment{Kind: SegmentIndex, Index: idx}
}

// Wildcard returns the per-item template segment.
func Wildcard() Segment {
	return Segment{Kind: SegmentWildcard}
}

// String renders the segment the way it would appear after a dot.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentIndex:
		return strconv.Itoa(s.Index)
	case SegmentWildcard:
		return "[]"
	default:
		return s.Name
	}
}

// Path is an ordered list of segments locating a value inside a model.
type Path []Segment

// ErrEmptyPath is returned when an operation needs at least one segment.
var ErrEmptyPath = errors.New("keypath: path is empty")

// New builds a path from strings and ints. Strings equal to "[]" become
// wildcards. Any other type panics; it is meant for literals in code.
func New(parts ...any) Path {
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		switch typed := part.(type) {
		case string:
			if typed == "[]" {
				out = append(out, Wildcard())
				continue
			}
			out = append(out, Name(typed))
		case int:
			out = append(out, Index(typed))
		case Segment:
			out = append(out, typed)
		default:
			panic(fmt.Sprintf("keypath: unsupported segment %T", part))
		}
	}
	return out
}

// FromList converts a decoded key array (as found in JSON or YAML layouts)
// into a Path. Numbers become indices, strings become names.
func FromList(list []any) (Path, error) {
	out := make(Path, 0, len(list))
	for idx, raw := range list {
		switch typed := raw.(type) {
		case string:
			if typed == "[]" {
				out = append(out, Wildcard())
				continue
			}
			out = append(out, Name(typed))
		case int:
			out = append(out, Index(typed))
		case int64:
			out = append(out, Index(int(typed)))
		case float64:
			if typed != float64(int(typed)) {
				return nil, fmt.Errorf("keypath: segment %d is not an integer: %v", idx, typed)
			}
			out = append(out, Index(int(typed)))
		default:
			return nil, fmt.Errorf("keypath: segment %d has unsupported type %T", idx, raw)
		}
	}
	return out, nil
}

// Parse reads the textual form: dot separated names, bracketed indices,
// bracketed quoted names and the "[]" wildcard, e.g. `a.b[0]['c d'].tags[]`.
func Parse(raw string) (Path, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyPath
	}

	var (
		out  Path
		name strings.Builder
	)
	flush := func() {
		if name.Len() > 0 {
			out = append(out, Name(name.String()))
			name.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch ch {
		case '.':
			if name.Len() == 0 && (i == 0 || text[i-1] == '.') {
				return nil, fmt.Errorf("keypath: empty segment at offset %d in %q", i, raw)
			}
			flush()
		case '[':
			flush()
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("keypath: unterminated bracket in %q", raw)
			}
			inner := text[i+1 : i+end]
			if quoted := len(inner) > 0 && (inner[0] == '\'' || inner[0] == '"'); quoted {
				// Quoted names may contain ']' so rescan for the closing quote.
				closeQuote := strings.IndexByte(text[i+2:], inner[0])
				if closeQuote < 0 || i+2+closeQuote+1 >= len(text) || text[i+2+closeQuote+1] != ']' {
					return nil, fmt.Errorf("keypath: unbalanced quote in %q", raw)
				}
				out = append(out, Name(text[i+2:i+2+closeQuote]))
				i = i + 2 + closeQuote + 1
				continue
			}
			switch {
			case inner == "":
				out = append(out, Wildcard())
			default:
				idx, err := strconv.Atoi(inner)
				if err != nil {
					out = append(out, Name(inner))
				} else {
					if idx < 0 {
						return nil, fmt.Errorf("keypath: negative index %d in %q", idx, raw)
					}
					out = append(out, Index(idx))
				}
			}
			i += end
		default:
			name.WriteByte(ch)
		}
	}
	if strings.HasSuffix(text, ".") {
		return nil, fmt.Errorf("keypath: trailing dot in %q", raw)
	}
	flush()
	if len(out) == 0 {
		return nil, ErrEmptyPath
	}
	return out, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the canonical textual form accepted by Parse.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch seg.Kind {
		case SegmentIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		case SegmentWildcard:
			b.WriteString("[]")
		default:
			if needsQuoting(seg.Name) {
				b.WriteString("['")
				b.WriteString(seg.Name)
				b.WriteString("']")
				continue
			}
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Name)
		}
	}
	return b.String()
}

// Dotted joins every segment with '.', indices included. Error events address
// fields with this form.
func (p Path) Dotted() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = seg.String()
	}
	return strings.Join(parts, ".")
}

func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if _, err := strconv.Atoi(name); err == nil {
		return true
	}
	return strings.ContainsAny(name, ".[]'\" ")
}

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p) == 0
}

// Last returns the final segment. It panics on an empty path.
func (p Path) Last() Segment {
	return p[len(p)-1]
}

// Parent drops the final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Append returns a new path with the given segments added.
func (p Path) Append(segments ...Segment) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

// Equal compares two paths segment by segment.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading sub-path of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// HasWildcard reports whether any segment is a wildcard.
func (p Path) HasWildcard() bool {
	for _, seg := range p {
		if seg.Kind == SegmentWildcard {
			return true
		}
	}
	return false
}

// Bind replaces wildcards, left to right, with the supplied indices. Extra
// wildcards without a matching index are kept.
func (p Path) Bind(indices ...int) Path {
	out := p.Clone()
	next := 0
	for i, seg := range out {
		if seg.Kind != SegmentWildcard || next >= len(indices) {
			continue
		}
		out[i] = Index(indices[next])
		next++
	}
	return out
}

// MarshalText encodes the path in its canonical textual form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses text with Parse. Empty text yields an empty path.
func (p *Path) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = nil
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

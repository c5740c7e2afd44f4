package keypath

import (
	"fmt"
	"strconv"
)

// Read returns the value stored at p inside container. Missing intermediate
// nodes are reported as absent, never as errors.
func Read(container any, p Path) (any, bool) {
	if len(p) == 0 {
		return container, container != nil
	}
	current := container
	for _, seg := range p {
		next, ok := child(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(node any, seg Segment) (any, bool) {
	switch typed := node.(type) {
	case map[string]any:
		key, ok := mapKey(seg)
		if !ok {
			return nil, false
		}
		value, exists := typed[key]
		return value, exists
	case []any:
		idx, ok := sliceIndex(seg)
		if !ok || idx >= len(typed) {
			return nil, false
		}
		return typed[idx], true
	default:
		return nil, false
	}
}

// Write stores value at p and returns the container, which is a new value
// when container was nil or a sequence had to grow. Missing intermediates are
// created on the way down: a sequence when the following segment is an
// index, a mapping otherwise.
func Write(container any, p Path, value any) (any, error) {
	if len(p) == 0 {
		return nil, ErrEmptyPath
	}
	if p.HasWildcard() {
		return nil, fmt.Errorf("keypath: cannot write through wildcard path %s", p)
	}
	return writeAt(container, p, 0, value)
}

func writeAt(node any, p Path, pos int, value any) (any, error) {
	seg := p[pos]
	last := pos == len(p)-1

	if node == nil {
		node = containerFor(seg)
	}

	switch typed := node.(type) {
	case map[string]any:
		key, _ := mapKey(seg)
		if last {
			typed[key] = value
			return typed, nil
		}
		updated, err := writeAt(typed[key], p, pos+1, value)
		if err != nil {
			return nil, err
		}
		typed[key] = updated
		return typed, nil
	case []any:
		idx, ok := sliceIndex(seg)
		if !ok {
			return nil, fmt.Errorf("keypath: segment %q of %s does not index a sequence", seg.String(), p)
		}
		if idx >= len(typed) {
			typed = append(typed, make([]any, idx+1-len(typed))...)
		}
		if last {
			typed[idx] = value
			return typed, nil
		}
		updated, err := writeAt(typed[idx], p, pos+1, value)
		if err != nil {
			return nil, err
		}
		typed[idx] = updated
		return typed, nil
	default:
		return nil, fmt.Errorf("keypath: cannot descend into %T at %s", node, p[:pos+1])
	}
}

func containerFor(seg Segment) any {
	if seg.Kind == SegmentIndex {
		return make([]any, 0, seg.Index+1)
	}
	return make(map[string]any)
}

// Delete removes the value at p from its parent container. Sequence elements
// are removed by shifting the tail, so the parent sequence is returned too.
// The boolean reports whether anything was removed.
func Delete(container any, p Path) (any, bool) {
	if len(p) == 0 {
		return container, false
	}
	parentPath := p.Parent()
	parent, ok := Read(container, parentPath)
	if !ok {
		return container, false
	}

	seg := p.Last()
	switch typed := parent.(type) {
	case map[string]any:
		key, _ := mapKey(seg)
		if _, exists := typed[key]; !exists {
			return container, false
		}
		delete(typed, key)
		return container, true
	case []any:
		idx, ok := sliceIndex(seg)
		if !ok || idx >= len(typed) {
			return container, false
		}
		shrunk := append(typed[:idx:idx], typed[idx+1:]...)
		if len(parentPath) == 0 {
			return shrunk, true
		}
		updated, err := Write(container, parentPath, shrunk)
		if err != nil {
			return container, false
		}
		return updated, true
	default:
		return container, false
	}
}

func mapKey(seg Segment) (string, bool) {
	switch seg.Kind {
	case SegmentName:
		return seg.Name, true
	case SegmentIndex:
		return strconv.Itoa(seg.Index), true
	default:
		return "", false
	}
}

func sliceIndex(seg Segment) (int, bool) {
	switch seg.Kind {
	case SegmentIndex:
		return seg.Index, seg.Index >= 0
	case SegmentName:
		idx, err := strconv.Atoi(seg.Name)
		if err != nil || idx < 0 {
			return 0, false
		}
		return idx, true
	default:
		return 0, false
	}
}

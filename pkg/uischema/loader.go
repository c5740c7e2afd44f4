package uischema

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
)

// Store keeps named layouts. It is safe for concurrent readers when treated
// as immutable after construction.
type Store struct {
	layouts map[string]Layout
	sources map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{layouts: make(map[string]Layout), sources: make(map[string]string)}
}

// Add registers a layout under name.
func (s *Store) Add(name string, layout Layout, source string) error {
	id := strings.TrimSpace(name)
	if id == "" {
		return fmt.Errorf("uischema: file %s defines a layout with an empty name", source)
	}
	if prev, exists := s.sources[id]; exists {
		return fmt.Errorf("uischema: duplicate layout %q (files %s and %s)", id, prev, source)
	}
	s.layouts[id] = layout
	s.sources[id] = source
	return nil
}

// LoadFS walks fsys below root and parses JSON/YAML layout files. A file
// holding an array is registered under its base name without extension; a
// file holding an object maps layout names to arrays under "layouts". When
// fsys is nil the returned store is empty.
func LoadFS(fsys fs.FS, root string) (*Store, error) {
	store := NewStore()
	if fsys == nil {
		return store, nil
	}
	if root == "" {
		root = "."
	}

	err := fs.WalkDir(fsys, root, func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isLayoutFile(name) {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", name, err)
		}
		return store.addDocument(name, data)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) addDocument(name string, data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("uischema: file %s is empty", name)
	}
	decoded, err := jsonschema.Decode(data)
	if err != nil {
		return fmt.Errorf("uischema: parse %s: %w", name, err)
	}

	switch doc := jsonschema.Plain(decoded).(type) {
	case []any:
		layout, err := FromValue(doc)
		if err != nil {
			return fmt.Errorf("%w (file %s)", err, name)
		}
		base := path.Base(name)
		return s.Add(strings.TrimSuffix(base, path.Ext(base)), layout, name)
	case map[string]any:
		layouts, ok := doc["layouts"].(map[string]any)
		if !ok {
			return fmt.Errorf("uischema: file %s must hold an array or a \"layouts\" object", name)
		}
		ids := make([]string, 0, len(layouts))
		for id := range layouts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			layout, err := FromValue(layouts[id])
			if err != nil {
				return fmt.Errorf("%w (file %s, layout %q)", err, name, id)
			}
			if err := s.Add(id, layout, name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("uischema: file %s must hold an array or a \"layouts\" object", name)
	}
}

// Layout returns the layout registered under name.
func (s *Store) Layout(name string) (Layout, bool) {
	if s == nil {
		return nil, false
	}
	layout, ok := s.layouts[name]
	return layout, ok
}

// Names lists registered layout names, sorted.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the store holds any layouts.
func (s *Store) Empty() bool {
	return s == nil || len(s.layouts) == 0
}

func isLayoutFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

package keypath

// Tree owns a mutable model root and routes every access through the path
// helpers, replacing the root when a write or delete has to reallocate it.
type Tree struct {
	root any
}

// NewTree wraps root. A nil root is created lazily on first write.
func NewTree(root any) *Tree {
	return &Tree{root: root}
}

// Root returns the current model root.
func (t *Tree) Root() any {
	if t == nil {
		return nil
	}
	return t.root
}

// Replace swaps the model root.
func (t *Tree) Replace(root any) {
	t.root = root
}

// Get reads the value at p.
func (t *Tree) Get(p Path) (any, bool) {
	if t == nil {
		return nil, false
	}
	return Read(t.root, p)
}

// Set writes value at p, creating intermediates as needed.
func (t *Tree) Set(p Path, value any) error {
	updated, err := Write(t.root, p, value)
	if err != nil {
		return err
	}
	t.root = updated
	return nil
}

// Delete removes the value at p and reports whether it existed.
func (t *Tree) Delete(p Path) bool {
	updated, ok := Delete(t.root, p)
	if ok {
		t.root = updated
	}
	return ok
}

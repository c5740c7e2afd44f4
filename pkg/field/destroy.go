package field

import (
	"fmt"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// ResolveDestroyStrategy picks the field strategy, then the form-wide one,
// then remove.
func ResolveDestroyStrategy(fieldStrategy, formStrategy model.DestroyStrategy) model.DestroyStrategy {
	if fieldStrategy != model.DestroyUnset {
		return fieldStrategy
	}
	if formStrategy != model.DestroyUnset {
		return formStrategy
	}
	return model.DestroyRemove
}

// ApplyDestroyStrategy mutates the model for a field bound to key that is
// going away. Nothing happens when the parent container of key is absent or
// the strategy is retain. empty resets string, object and array values (the
// first type of the list that matches) and removes anything else; null
// stores nil; every other strategy removes the key. It reports whether the
// model changed.
func ApplyDestroyStrategy(tree *keypath.Tree, key keypath.Path, s *schema.Schema, strategy model.DestroyStrategy) (bool, error) {
	if tree == nil || len(key) == 0 || strategy == model.DestroyRetain {
		return false, nil
	}
	if key.HasWildcard() {
		return false, fmt.Errorf("field: destroy strategy needs a bound key, got %s", key)
	}

	var parent any
	if len(key) == 1 {
		parent = tree.Root()
	} else {
		parent, _ = tree.Get(key.Parent())
	}
	if parent == nil {
		return false, nil
	}

	switch {
	case strategy == model.DestroyEmpty && s.HasType("string"):
		return true, tree.Set(key, "")
	case strategy == model.DestroyEmpty && s.HasType("object"):
		return true, tree.Set(key, map[string]any{})
	case strategy == model.DestroyEmpty && s.HasType("array"):
		return true, tree.Set(key, []any{})
	case strategy == model.DestroyNull:
		return true, tree.Set(key, nil)
	default:
		return tree.Delete(key), nil
	}
}

package normalizer

import (
	"fmt"
	"strings"
)

// toCategory resolves the category attribute, which the supplier sends
// either as a list of category objects or as a single object.
func toCategory(v any) (string, error) {
	switch c := v.(type) {
	case []any:
		if len(c) == 0 {
			return "", fmt.Errorf("%w: empty category list", ErrCoercion)
		}
		return categoryName(c[0])
	case []map[string]any:
		if len(c) == 0 {
			return "", fmt.Errorf("%w: empty category list", ErrCoercion)
		}
		return categoryName(c[0])
	case map[string]any:
		return categoryName(c)
	}
	return "", coercionError("category", v)
}

func categoryName(v any) (string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", coercionError("category object", v)
	}
	raw, ok := obj["name"]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: category without name", ErrCoercion)
	}
	name, ok := raw.(string)
	if !ok {
		return "", coercionError("category name", raw)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: blank category name", ErrCoercion)
	}
	return name, nil
}

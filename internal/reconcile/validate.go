package reconcile

import (
	"sort"

	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/registry"
)

// Validator checks a universe's items for required-field completeness
// against the type registry.
type Validator struct {
	Registry *registry.Registry
}

// Validate accumulates every schema problem across the whole universe
// so the operator sees all of them in one pass. An unknown type key is
// reported once per type, not once per item carrying it.
func (v *Validator) Validate(u Universe) *diag.Result {
	result := &diag.Result{}

	badTypes := make(map[string]bool)
	for _, typeName := range sortedKeys(u) {
		t, ok := v.Registry.Lookup(typeName)
		if !ok {
			if !badTypes[typeName] {
				badTypes[typeName] = true
				valid := v.Registry.Names()
				result.AddError([2]any{typeName, valid}, diag.ErrInvalidKey,
					"Invalid key '%s', must be one of %v", typeName, valid)
			}
			continue
		}
		for _, item := range u[typeName] {
			v.validateItem(result, t, item)
		}
	}
	return result
}

func (v *Validator) validateItem(result *diag.Result, t *registry.ItemType, item Item) {
	required := t.RequiredFields()

	var missing []string
	for key := range required {
		if _, ok := item[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		raw := []any{t.Name, item.Name(), item, required, missing}
		result.AddError(raw, diag.ErrKeysMissing,
			"Missing keys %v in '%s' (%s), the rest is %v", missing, item.Name(), t.Name, map[string]any(item))
	}

	// Keys may be present yet explicitly null; 0 and "" are valid
	// values, null never is.
	for _, key := range sortedRequired(required) {
		if value, ok := item[key]; ok && value == nil {
			raw := []any{key, required, item, t.Name}
			result.AddError(raw, diag.ErrKeysMissing,
				"Key '%s' must not be null in %v (%s)", key, map[string]any(item), t.Name)
		}
	}
}

func sortedKeys(u Universe) []string {
	keys := make([]string, 0, len(u))
	for key := range u {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedRequired(required map[string]bool) []string {
	keys := make([]string, 0, len(required))
	for key := range required {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package reconcile

import (
	"sort"

	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/registry"
)

// MissingDef identifies one unresolved object dependency: no item of
// Type has its declared field equal to Value.
type MissingDef struct {
	Type  string
	Value string
	// Dependents are the names of the items that reference the
	// missing object.
	Dependents []string
	// Existing lists the names of the items of Type that do exist,
	// for diagnostic display.
	Existing []string
}

// Scanner checks that every item's references to other items are
// satisfiable within one universe.
type Scanner struct {
	Registry *registry.Registry
	// IgnoreMissing suppresses the per-reference warnings while still
	// collecting them, for export flows that tolerate dangling
	// references.
	IgnoreMissing bool
}

// CollectMissing walks every item's object dependency rules and groups
// unresolved references by their (type, value) target. Grouping first
// and reporting second keeps one warning per distinct missing object
// no matter how many items depend on it.
func (s *Scanner) CollectMissing(u Universe) map[[2]string][]string {
	missing := make(map[[2]string][]string)
	for typeName, items := range u {
		t, ok := s.Registry.Lookup(typeName)
		if !ok {
			continue
		}
		for _, item := range items {
			s.scanItem(missing, u, t, item)
		}
	}
	return missing
}

func (s *Scanner) scanItem(missing map[[2]string][]string, u Universe, t *registry.ItemType, item Item) {
	for field, dep := range t.ObjectDeps {
		value, ok := item[field].(string)
		if !ok {
			continue
		}
		// Only a non-blank Empty is a declared sentinel. Under a rule
		// without one, "" is a reference like any other and must be
		// reported as unresolvable.
		if dep.Empty != "" && value == dep.Empty {
			continue
		}
		if _, found := u.FindByField(dep.Type, dep.Field, value); found {
			continue
		}
		key := [2]string{dep.Type, value}
		missing[key] = append(missing[key], item.Name())
	}
}

// Scan reports unresolved dependencies, one warning per distinct
// missing (type, value) pair, in sorted order for determinism.
func (s *Scanner) Scan(u Universe) *diag.Result {
	result := &diag.Result{}
	missing := s.CollectMissing(u)
	if s.IgnoreMissing {
		return result
	}

	keys := make([][2]string, 0, len(missing))
	for key := range missing {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, key := range keys {
		dependents := append([]string(nil), missing[key]...)
		sort.Strings(dependents)
		existing := u.Names(key[0])
		sort.Strings(existing)

		def := MissingDef{Type: key[0], Value: key[1], Dependents: dependents, Existing: existing}
		result.AddWarning(def, diag.WarnMissingDef,
			"'%s' is needed by %v but was not among %v (%s)", def.Value, dependents, existing, def.Type)
	}
	return result
}

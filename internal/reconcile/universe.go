// Package reconcile implements the reconciliation engine: validation
// of configuration documents against the type registry, dependency
// scanning, the in-memory mirror of the remote catalog, local/remote
// merging and the ordered fail-fast importer.
package reconcile

import (
	"context"

	"github.com/vorvix/zato/internal/client"
)

// Item is one loosely-typed configuration record. Field semantics are
// defined by the item's type in the registry, not by this shape.
type Item map[string]any

// Name returns the item's name field, or "" when absent.
func (it Item) Name() string {
	name, _ := it["name"].(string)
	return name
}

// GetString returns a field as a string, or "" when the field is
// absent or not a string.
func (it Item) GetString(key string) string {
	v, _ := it[key].(string)
	return v
}

// ID returns the item's numeric remote identifier, or 0 when the item
// has never been imported. JSON decoding yields float64 for numbers,
// so both representations are accepted.
func (it Item) ID() int {
	switch v := it["id"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Clone returns a shallow copy of the item's top-level fields. Values
// are shared; components mutate items only at the top level.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Universe maps a type key to the ordered list of items of that type.
// Within one universe no two items of a type may share an identity;
// duplicates are a defect reported by validation, never silently
// dropped.
type Universe map[string][]Item

// Clone deep-copies the universe's buckets and item field maps.
func (u Universe) Clone() Universe {
	out := make(Universe, len(u))
	for key, items := range u {
		cloned := make([]Item, len(items))
		for i, it := range items {
			cloned[i] = it.Clone()
		}
		out[key] = cloned
	}
	return out
}

// FindByField returns the first item of a type whose field equals the
// given value.
func (u Universe) FindByField(typeName, field string, value any) (Item, bool) {
	for _, it := range u[typeName] {
		if it[field] == value {
			return it, true
		}
	}
	return nil, false
}

// Names returns the names of every item of a type, in bucket order.
func (u Universe) Names(typeName string) []string {
	items := u[typeName]
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name())
	}
	return names
}

// NormalizeServiceName makes the service and service_name aliases
// interchangeable: when an item carries either key, both end up set to
// the same value.
func NormalizeServiceName(item Item) {
	service, hasService := item["service"]
	serviceName, hasServiceName := item["service_name"]
	if !hasService && !hasServiceName {
		return
	}
	if !hasService {
		item["service"] = serviceName
	}
	if !hasServiceName {
		item["service_name"] = service
	}
}

// Invoker is the slice of the remote API the engine's components
// consume.
type Invoker interface {
	Invoke(ctx context.Context, operation string, request map[string]any) (*client.Response, error)
	ClusterID() int
}

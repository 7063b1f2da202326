package reconcile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vorvix/zato/internal/registry"
)

// ignoredNames are remote objects never subject to reconciliation on
// top of the blanket internal-name pattern.
var ignoredNames = map[string]bool{
	"admin.invoke": true,
	"pubapi":       true,
}

// Mirror is the in-memory snapshot of the remote catalog's current
// items per type. It lives for one reconciliation run and is rebuilt
// by re-invoking each type's list operation.
type Mirror struct {
	// Objects holds the snapshot, keyed like a document universe.
	Objects Universe

	client   Invoker
	registry *registry.Registry
	log      zerolog.Logger
	services map[string]Item
}

// NewMirror builds an empty mirror; call Refresh to populate it.
func NewMirror(inv Invoker, reg *registry.Registry, log zerolog.Logger) *Mirror {
	return &Mirror{
		Objects:  make(Universe),
		client:   inv,
		registry: reg,
		log:      log,
		services: make(map[string]Item),
	}
}

// Services returns the deployed services by name, fetched by the last
// Refresh.
func (m *Mirror) Services() map[string]Item {
	return m.services
}

// Refresh rebuilds the whole snapshot: the deployed service index
// first, then every type's item list.
func (m *Mirror) Refresh(ctx context.Context) error {
	if err := m.refreshServices(ctx); err != nil {
		return err
	}
	m.Objects = make(Universe)
	for _, t := range m.registry.Types() {
		if err := m.RefreshByType(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) refreshServices(ctx context.Context) error {
	resp, err := m.client.Invoke(ctx, "zato.service.get-list", map[string]any{
		"cluster_id":  m.client.ClusterID(),
		"name_filter": "*",
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		m.log.Warn().Str("details", resp.Details).Msg("could not fetch service list")
		return nil
	}

	m.services = make(map[string]Item)
	for _, record := range resp.List() {
		item := Item(record)
		m.services[item.Name()] = item
	}
	return nil
}

// RefreshByType re-fetches one type's list, normalizes each returned
// record into the document's shape and drops internal objects. Types
// without a list operation are skipped with a debug note only.
func (m *Mirror) RefreshByType(ctx context.Context, t *registry.ItemType) error {
	opName := t.OperationName(registry.VerbList)
	if opName == "" {
		m.log.Debug().Str("type", t.Name).Msg("type has no list operation")
		return nil
	}

	m.log.Debug().Str("operation", opName).Str("type", t.Name).Msg("listing")
	resp, err := m.client.Invoke(ctx, opName, map[string]any{
		"cluster_id": m.client.ClusterID(),
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		m.log.Warn().Str("type", t.Name).Str("details", resp.Details).Msg("could not fetch objects")
		return nil
	}

	m.Objects[t.Name] = nil
	for _, record := range resp.List() {
		item := Item(record)
		if m.matchesExportFilter(t, item) || m.isIgnoredName(item) {
			continue
		}
		m.fixUp(t, item)
		m.Objects[t.Name] = append(m.Objects[t.Name], item)
	}
	return nil
}

func (m *Mirror) matchesExportFilter(t *registry.ItemType, item Item) bool {
	for key, value := range t.ExportFilter {
		if item[key] == value {
			return true
		}
	}
	return false
}

func (m *Mirror) isIgnoredName(item Item) bool {
	name := strings.ToLower(item.Name())
	return strings.Contains(name, "zato") || ignoredNames[name]
}

// fixUp normalizes a record returned by the remote API into the shape
// documents use: dual service-name aliases, numeric back-references
// resolved to names, and the generic sec_type field renamed.
func (m *Mirror) fixUp(t *registry.ItemType, item Item) {
	NormalizeServiceName(item)

	switch {
	case t.Name == "http_soap":
		if item.GetString("connection") == "channel" {
			m.resolveServiceName(item)
		}
		if secID := intField(item, "security_id"); secID != 0 {
			if sec, ok := m.findSecurityByID(secID); ok {
				item["sec_def"] = sec.Name()
			}
		} else {
			item["sec_def"] = registry.NoSecurityNeeded
		}
	case t.Name == "scheduler":
		m.resolveServiceName(item)
	default:
		if secType, ok := item["sec_type"]; ok {
			item["type"] = secType
			delete(item, "sec_type")
		}
	}
}

func (m *Mirror) resolveServiceName(item Item) {
	serviceID := intField(item, "service_id")
	for _, svc := range m.services {
		if svc.ID() == serviceID {
			item["service"] = svc.Name()
			item["service_name"] = svc.Name()
			return
		}
	}
}

func (m *Mirror) findSecurityByID(id int) (Item, bool) {
	for _, sec := range m.Objects["def_sec"] {
		if sec.ID() == id {
			return sec, true
		}
	}
	return nil, false
}

// Find returns the first item of a type with the given name. Identity
// here is name-only for every type; composite http/soap matching is
// the importer's concern.
func (m *Mirror) Find(typeName, name string) (Item, bool) {
	typeName = strings.ReplaceAll(typeName, "-", "_")
	for _, item := range m.Objects[typeName] {
		if item.Name() == name {
			return item, true
		}
	}
	return nil, false
}

// FindSecurity searches every security-capable type for a definition
// with the given name.
func (m *Mirror) FindSecurity(name string) (Item, bool) {
	for _, t := range m.registry.SecurityTypes() {
		if item, ok := m.Find(t.Name, name); ok {
			return item, true
		}
	}
	return nil, false
}

// Delete removes one remote item. A missing delete operation or a
// failed response is logged as an error but does not stop the run.
func (m *Mirror) Delete(ctx context.Context, typeName string, item Item) {
	t, ok := m.registry.Lookup(typeName)
	if !ok {
		m.log.Error().Str("type", typeName).Msg("unknown type, cannot delete")
		return
	}
	opName := t.OperationName(registry.VerbDelete)
	if opName == "" {
		m.log.Error().Str("type", typeName).Msg("type has no delete operation")
		return
	}

	resp, err := m.client.Invoke(ctx, opName, map[string]any{
		"cluster_id": m.client.ClusterID(),
		"id":         item.ID(),
	})
	if err != nil {
		m.log.Error().Err(err).Str("type", typeName).Int("id", item.ID()).Msg("could not delete")
		return
	}
	if !resp.OK {
		m.log.Error().Str("type", typeName).Int("id", item.ID()).Str("details", resp.Details).Msg("could not delete")
		return
	}
	m.log.Info().Str("type", typeName).Int("id", item.ID()).Msg("deleted")
}

// DeleteAll removes every item in the snapshot from the remote catalog
// and returns how many deletions were attempted.
func (m *Mirror) DeleteAll(ctx context.Context) int {
	count := 0
	for typeName, items := range m.Objects {
		for _, item := range items {
			m.Delete(ctx, typeName, item)
			count++
		}
	}
	return count
}

func intField(item Item, key string) int {
	switch v := item[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

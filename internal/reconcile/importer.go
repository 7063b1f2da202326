package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vorvix/zato/internal/client"
	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/registry"
)

// ExistingMatch records one document item that already exists in the
// remote catalog, together with the matched remote record.
type ExistingMatch struct {
	Type     string
	Attrs    Item
	Existing Item
}

// Importer orchestrates validation, existing-object detection and the
// ordered create/update calls that bring the remote catalog in line
// with a local document. Items are applied strictly one at a time; the
// first failing remote call aborts the run with everything collected
// so far.
type Importer struct {
	client        Invoker
	registry      *registry.Registry
	mirror        *Mirror
	doc           Universe
	ignoreMissing bool
	log           zerolog.Logger
}

// NewImporter builds an importer over one local document and one
// refreshed mirror. The document is owned by the importer from here
// on: successfully edited items are removed from it so they are never
// also created.
func NewImporter(inv Invoker, reg *registry.Registry, mirror *Mirror, doc Universe, ignoreMissing bool, log zerolog.Logger) *Importer {
	return &Importer{
		client:        inv,
		registry:      reg,
		mirror:        mirror,
		doc:           doc,
		ignoreMissing: ignoreMissing,
		log:           log,
	}
}

// ValidateImportData runs every pre-mutation check: dependency
// references are re-checked against the mirror, and service-name
// requirements are verified against the deployed service index.
func (im *Importer) ValidateImportData(ctx context.Context) *diag.Result {
	result := &diag.Result{}

	scanner := &Scanner{Registry: im.registry, IgnoreMissing: im.ignoreMissing}
	for _, warning := range scanner.Scan(im.doc).Warnings {
		def, ok := warning.Raw.(MissingDef)
		if !ok {
			continue
		}
		// Unresolved locally; only a problem when the catalog does
		// not have it either.
		if _, found := im.mirror.Find(def.Type, def.Value); !found {
			result.AddWarning(def, diag.WarnMissingDefInclRemote,
				"Definition '%s' not found in document or cluster (%s), needed by %v",
				def.Value, def.Type, def.Dependents)
		}
	}

	for typeName, items := range im.doc {
		t, ok := im.registry.Lookup(typeName)
		if !ok {
			continue
		}
		for _, item := range items {
			im.validateServiceRequired(result, t, item)
		}
	}
	return result
}

func (im *Importer) validateServiceRequired(result *diag.Result, t *registry.ItemType, item Item) {
	for field, dep := range t.ServiceDeps {
		if dep.OnlyIfField != "" && item.GetString(dep.OnlyIfField) != dep.OnlyIfValue {
			continue
		}

		serviceName := item.GetString(field)
		raw := []any{serviceName, item, t.Name}
		if serviceName == "" {
			result.AddError(raw, diag.ErrServiceNameMissing,
				"No service defined in %v (%s)", map[string]any(item), t.Name)
		} else if _, ok := im.mirror.Services()[serviceName]; !ok {
			result.AddError(raw, diag.ErrServiceMissing,
				"Service '%s' from %v missing on cluster (%s)", serviceName, map[string]any(item), t.Name)
		}
	}
}

// FindAlreadyExisting detects document items that already exist in the
// catalog. The http/soap composite bucket is searched by the full
// (connection, transport, name) triple; every other type by name only.
func (im *Importer) FindAlreadyExisting() *diag.Result {
	result := &diag.Result{}
	for _, typeName := range sortedKeys(im.doc) {
		for _, item := range im.doc[typeName] {
			name := item.Name()
			if name == "" {
				result.AddError([2]any{typeName, item}, diag.ErrNameMissing,
					"%v has no 'name' key (%s)", map[string]any(item), typeName)
				continue
			}

			if typeName == "http_soap" {
				connection := item.GetString("connection")
				transport := item.GetString("transport")
				for _, remote := range im.mirror.Objects["http_soap"] {
					if remote.GetString("connection") == connection &&
						remote.GetString("transport") == transport &&
						remote.Name() == name {
						im.addExistsWarning(result, typeName, item, remote)
						break
					}
				}
			} else if remote, ok := im.mirror.Find(typeName, name); ok {
				im.addExistsWarning(result, typeName, item, remote)
			}
		}
	}
	return result
}

func (im *Importer) addExistsWarning(result *diag.Result, typeName string, attrs, existing Item) {
	match := ExistingMatch{Type: typeName, Attrs: attrs, Existing: existing}
	result.AddWarning(match, diag.WarnAlreadyExists,
		"%v already exists on cluster as %v (%s)", map[string]any(attrs), map[string]any(existing), typeName)
}

// Import applies the document: updates for every already-existing
// match first, then creations for everything left, each pass handling
// definition types before the types that may depend on them. The first
// failing operation halts the run.
func (im *Importer) Import(ctx context.Context, alreadyExisting *diag.Result) *diag.Result {
	result := &diag.Result{}

	var existingDefs, existingOther []ExistingMatch
	for _, warning := range alreadyExisting.Warnings {
		match, ok := warning.Raw.(ExistingMatch)
		if !ok {
			continue
		}
		if strings.Contains(match.Type, "def") {
			existingDefs = append(existingDefs, match)
		} else {
			existingOther = append(existingOther, match)
		}
	}

	for _, match := range append(existingDefs, existingOther...) {
		if im.shouldSkip(match.Type, match.Attrs) {
			continue
		}
		if halted := im.importOne(ctx, result, match.Type, match.Attrs, true); halted {
			return result
		}
	}

	for _, defsPass := range []bool{true, false} {
		for _, typeName := range sortedKeys(im.doc) {
			if strings.Contains(typeName, "def") != defsPass {
				continue
			}
			// Edited items remove themselves from the bucket; copy so
			// iteration stays stable.
			items := append([]Item(nil), im.doc[typeName]...)
			for _, attrs := range items {
				if im.shouldSkip(typeName, attrs) {
					continue
				}
				if halted := im.importOne(ctx, result, typeName, attrs, false); halted {
					return result
				}
			}
		}
	}
	return result
}

// shouldSkip protects built-in items that must never be written to.
func (im *Importer) shouldSkip(typeName string, attrs Item) bool {
	return typeName == "rbac_role" && attrs.Name() == "Root"
}

func (im *Importer) importOne(ctx context.Context, result *diag.Result, typeName string, attrs Item, isEdit bool) bool {
	t, ok := im.registry.Lookup(typeName)
	if !ok {
		result.AddError([2]any{typeName, attrs}, diag.ErrInvalidKey,
			"Invalid key '%s', must be one of %v", typeName, im.registry.Names())
		return true
	}

	snapshot := attrs.Clone()
	attrs["cluster_id"] = im.client.ClusterID()

	opName, resp, err := im.importObject(ctx, t, attrs, isEdit)
	details := ""
	switch {
	case err != nil:
		details = err.Error()
	case !resp.OK:
		details = resp.Details
	default:
		if pwDetails := im.maybeChangePassword(ctx, t, attrs, resp, isEdit); pwDetails != "" {
			details = pwDetails
		}
	}
	if details != "" {
		result.AddError([3]any{typeName, snapshot, details}, diag.ErrCouldNotImport,
			"Could not import (is_edit %v) '%s' with %v, response from '%s' was '%s'",
			isEdit, attrs.Name(), map[string]any(snapshot), opName, details)
		return true
	}

	// Just updated, so it must not also be created later.
	if isEdit {
		im.removeFromDoc(typeName, attrs.Name())
	}

	// Keep the mirror in step with what was just written so later
	// items resolve their references against current state.
	if err := im.mirror.RefreshByType(ctx, t); err != nil {
		im.log.Warn().Err(err).Str("type", typeName).Msg("could not refresh after import")
	}
	return false
}

func (im *Importer) importObject(ctx context.Context, t *registry.ItemType, attrs Item, isEdit bool) (string, *client.Response, error) {
	verb := registry.VerbCreate
	if isEdit {
		verb = registry.VerbEdit
	}
	opName := t.OperationName(verb)
	if opName == "" {
		return "", nil, fmt.Errorf("type %s has no %s operation", t.Name, verb)
	}

	required := t.RequiredFields()
	swapServiceName(required, attrs, "service", "service_name")
	swapServiceName(required, attrs, "service_name", "service")

	// The edit operation addresses the object by its remote id.
	if isEdit {
		if remote, ok := im.mirror.Find(t.Name, attrs.Name()); ok {
			attrs["id"] = remote.ID()
		}
	}

	if t.Name == "http_soap" {
		if attrs.GetString("sec_def") == registry.NoSecurityNeeded {
			attrs["security_id"] = nil
		} else if sec, ok := im.mirror.FindSecurity(attrs.GetString("sec_def")); ok {
			attrs["security_id"] = sec.ID()
		}
	}

	if defType, ok := definitionTypeFor(t.Name); ok {
		if def, found := im.mirror.Find(defType, attrs.GetString("def_name")); found {
			attrs["def_id"] = def.ID()
		}
	}

	resp, err := im.client.Invoke(ctx, opName, attrs)
	if err != nil {
		return opName, nil, err
	}
	if resp.OK {
		action := "created"
		if isEdit {
			action = "updated"
		}
		im.log.Info().Str("name", attrs.Name()).Str("operation", opName).Msgf("%s object", action)
	}
	return opName, resp, nil
}

// definitionTypeFor maps a connection type to the definition type
// whose id must be injected right before the remote call.
func definitionTypeFor(typeName string) (string, bool) {
	switch typeName {
	case "channel_amqp", "channel_jms_wmq", "outconn_amqp", "outconn_jms_wmq":
		replaced := strings.Replace(typeName, "channel", "def", 1)
		return strings.Replace(replaced, "outconn", "def", 1), true
	}
	return "", false
}

// maybeChangePassword issues the out-of-band password change for types
// that have one, when a password was supplied. An absent password is
// tolerated: the change-password path exists exactly so credentials
// can be set separately from the object's own attributes.
func (im *Importer) maybeChangePassword(ctx context.Context, t *registry.ItemType, attrs Item, resp *client.Response, isEdit bool) string {
	opName := t.OperationName(registry.VerbChangePassword)
	if opName == "" {
		return ""
	}

	password := attrs.GetString("password")
	if password == "" {
		im.log.Info().Str("name", attrs.Name()).Str("type", t.Name).Msg("password missing but not required")
		return ""
	}

	id := attrs.ID()
	if !isEdit {
		// Creation just assigned the id remotely; it is only known
		// from the create response.
		id = intField(Item(resp.Map()), "id")
	}

	pwResp, err := im.client.Invoke(ctx, opName, map[string]any{
		"id":        id,
		"password1": password,
		"password2": password,
	})
	if err != nil {
		return err.Error()
	}
	if !pwResp.OK {
		return pwResp.Details
	}
	im.log.Info().Str("name", attrs.Name()).Str("type", t.Name).Msg("updated password")
	return ""
}

func (im *Importer) removeFromDoc(typeName, name string) {
	items := im.doc[typeName]
	for i, it := range items {
		if it.Name() == name {
			im.doc[typeName] = append(items[:i], items[i+1:]...)
			return
		}
	}
}

// swapServiceName copies second into first when the operation requires
// first and the document supplied second: the two are aliases.
func swapServiceName(required map[string]bool, attrs Item, first, second string) {
	if required[first] {
		if v, ok := attrs[second]; ok {
			attrs[first] = v
		}
	}
}

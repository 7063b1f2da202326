// Package registry holds the static catalog of configuration item
// types: their dependency rules, export filters and the remote
// operations implementing each verb. The table is built once at
// startup and never mutated afterwards except for operation metadata
// merged in from the server's introspection output.
package registry

import (
	"sort"
	"strings"
)

// NoSecurityNeeded is the sentinel value meaning an item explicitly
// declares it needs no security definition.
const NoSecurityNeeded = "zato-no-security"

// Verbs resolvable to remote operations.
const (
	VerbCreate         = "create"
	VerbEdit           = "edit"
	VerbDelete         = "delete"
	VerbList           = "get-list"
	VerbChangePassword = "change-password"
)

// ObjectDependency declares that a field of an item must reference an
// existing item of another type, unless the field holds Empty.
type ObjectDependency struct {
	// Type is the registry name of the item type being referenced.
	Type string
	// Field is the field on the referenced item that must match.
	Field string
	// Empty, when non-blank, is the sentinel meaning "no dependency".
	Empty string
}

// ServiceDependency declares that a field of an item must name a
// service deployed on the cluster, optionally only when another field
// holds a given value.
type ServiceDependency struct {
	OnlyIfField string
	OnlyIfValue string
}

// Operation describes one concrete remote operation behind a verb.
type Operation struct {
	// Name is the opaque RPC name invoked on the cluster.
	Name string
	// InputRequired lists the fields the operation requires.
	InputRequired []string
}

// ItemType is the immutable descriptor of one configuration item
// class. Instances live in the Registry and are shared; callers must
// not modify them.
type ItemType struct {
	// Name is the short type key used in configuration documents.
	Name string
	// Prefix is the remote operation prefix, when the type has one.
	Prefix string
	// ObjectDeps maps a field name to its object dependency rule.
	ObjectDeps map[string]ObjectDependency
	// ServiceDeps maps a field name to its service dependency rule.
	ServiceDeps map[string]ServiceDependency
	// ExportFilter lists field/value pairs excluding an item from
	// export and from the catalog mirror.
	ExportFilter map[string]any

	ops map[string]Operation
}

// replaceNames are caller-side field aliases applied when computing
// required fields: the caller supplies the right-hand name even though
// the operation metadata declares the left-hand one.
var replaceNames = map[string]string{
	"def_id": "def_name",
}

// IsSecurity reports whether the type is a source of authentication
// credentials for other types. The umbrella def_sec type itself is
// not; only the concrete per-mechanism types introspected from the
// server are.
func (t *ItemType) IsSecurity() bool {
	return strings.HasPrefix(t.Prefix, "zato.security.")
}

// IsComposite reports whether items of this type share the composite
// http_soap catalog bucket, where identity is (connection, transport,
// name) rather than name alone.
func (t *ItemType) IsComposite() bool {
	return strings.Contains(t.Name, "http") || strings.Contains(t.Name, "soap")
}

// IsDefinition reports whether the type is definition-like and must be
// imported before types that may reference it.
func (t *ItemType) IsDefinition() bool {
	return strings.Contains(t.Name, "def")
}

// Identity returns the key under which an item of this type is
// compared for sameness within a universe.
func (t *ItemType) Identity(item map[string]any) string {
	name, _ := item["name"].(string)
	if !t.IsComposite() {
		return name
	}
	connection, _ := item["connection"].(string)
	transport, _ := item["transport"].(string)
	return connection + "/" + transport + "/" + name
}

// SetOperation records the concrete operation behind a verb.
func (t *ItemType) SetOperation(verb string, op Operation) {
	if t.ops == nil {
		t.ops = make(map[string]Operation)
	}
	t.ops[verb] = op
}

// Operation returns the operation behind a verb and whether one is
// known for this type.
func (t *ItemType) Operation(verb string) (Operation, bool) {
	op, ok := t.ops[verb]
	return op, ok
}

// OperationName returns the RPC name behind a verb, or "" when the
// type has no such operation.
func (t *ItemType) OperationName(verb string) string {
	return t.ops[verb].Name
}

// HasOperation reports whether the type resolves a verb to a remote
// operation.
func (t *ItemType) HasOperation(verb string) bool {
	_, ok := t.ops[verb]
	return ok
}

// RequiredFields computes the set of fields a document item of this
// type must carry to be creatable. Field aliases are renamed, the
// cluster identifier is discarded since it never comes from user
// input, and SQL-flavoured types additionally require a password even
// though their operation metadata does not say so.
func (t *ItemType) RequiredFields() map[string]bool {
	create, ok := t.ops[VerbCreate]
	if !ok {
		return nil
	}

	required := make(map[string]bool, len(create.InputRequired))
	for _, name := range create.InputRequired {
		if alias, ok := replaceNames[name]; ok {
			name = alias
		}
		required[name] = true
	}
	delete(required, "cluster_id")
	if strings.Contains(t.Name, "sql") {
		required["password"] = true
	}
	return required
}

// Registry is the process-wide type catalog.
type Registry struct {
	byName   map[string]*ItemType
	byPrefix map[string]*ItemType
	ordered  []*ItemType
}

// New builds the static registry. Dependency rules mirror the remote
// catalog's referential constraints; they are data, not behavior, so
// the whole table lives here rather than being spread over the
// components that consume it.
func New() *Registry {
	r := &Registry{
		byName:   make(map[string]*ItemType),
		byPrefix: make(map[string]*ItemType),
	}
	for _, t := range staticTypes() {
		r.add(t)
	}
	return r
}

func staticTypes() []*ItemType {
	return []*ItemType{
		{
			Name:   "channel_amqp",
			Prefix: "zato.channel.amqp",
			ObjectDeps: map[string]ObjectDependency{
				"def_name": {Type: "def_amqp", Field: "name"},
			},
			ServiceDeps: map[string]ServiceDependency{
				"service_name": {},
			},
		},
		{
			Name:   "channel_jms_wmq",
			Prefix: "zato.channel.jms-wmq",
			ObjectDeps: map[string]ObjectDependency{
				"def_name": {Type: "def_jms_wmq", Field: "name", Empty: NoSecurityNeeded},
			},
			ServiceDeps: map[string]ServiceDependency{
				"service_name": {},
			},
		},
		{
			Name: "channel_plain_http",
			ObjectDeps: map[string]ObjectDependency{
				"sec_def": {Type: "def_sec", Field: "name", Empty: NoSecurityNeeded},
			},
			ServiceDeps: map[string]ServiceDependency{
				"service_name": {},
			},
		},
		{
			Name: "channel_soap",
			ObjectDeps: map[string]ObjectDependency{
				"sec_def": {Type: "def_sec", Field: "name", Empty: NoSecurityNeeded},
			},
			ServiceDeps: map[string]ServiceDependency{
				"service_name": {},
			},
		},
		{
			Name:   "channel_zmq",
			Prefix: "zato.channel.zmq",
			ServiceDeps: map[string]ServiceDependency{
				"service_name": {},
			},
		},
		{
			Name:   "def_sec",
			Prefix: "zato.security",
		},
		{
			// Covers outconn_plain_http, outconn_soap and channels in
			// one catalog bucket, discriminated by connection and
			// transport.
			Name:   "http_soap",
			Prefix: "zato.http-soap",
			ObjectDeps: map[string]ObjectDependency{
				"sec_def": {Type: "def_sec", Field: "name", Empty: NoSecurityNeeded},
			},
			ServiceDeps: map[string]ServiceDependency{
				"service_name": {OnlyIfField: "connection", OnlyIfValue: "channel"},
			},
			ExportFilter: map[string]any{
				"is_internal": true,
			},
		},
		{
			Name:   "notif_sql",
			Prefix: "zato.notif.sql",
			ObjectDeps: map[string]ObjectDependency{
				"def_name": {Type: "outconn_sql", Field: "name"},
			},
		},
		{
			Name:   "outconn_amqp",
			Prefix: "zato.outgoing.amqp",
			ObjectDeps: map[string]ObjectDependency{
				"def_name": {Type: "def_amqp", Field: "name"},
			},
		},
		{
			Name:   "outconn_jms_wmq",
			Prefix: "zato.outgoing.jms-wmq",
			ObjectDeps: map[string]ObjectDependency{
				"def_name": {Type: "def_jms_wmq", Field: "name"},
			},
			ServiceDeps: map[string]ServiceDependency{
				"service": {},
			},
		},
		{
			// Export-side flavour of the composite http_soap bucket.
			Name: "outconn_plain_http",
			ObjectDeps: map[string]ObjectDependency{
				"sec_def": {Type: "def_sec", Field: "name", Empty: NoSecurityNeeded},
			},
		},
		{
			Name: "outconn_soap",
			ObjectDeps: map[string]ObjectDependency{
				"sec_def": {Type: "def_sec", Field: "name", Empty: NoSecurityNeeded},
			},
		},
		{
			Name:   "query_cassandra",
			Prefix: "zato.query.cassandra",
			ObjectDeps: map[string]ObjectDependency{
				"sec_def": {Type: "def_cassandra", Field: "name", Empty: NoSecurityNeeded},
			},
		},
	}
}

func (r *Registry) add(t *ItemType) {
	r.byName[t.Name] = t
	if t.Prefix != "" {
		r.byPrefix[t.Prefix] = t
	}
	r.ordered = append(r.ordered, t)
}

// Lookup resolves a type by its document key.
func (r *Registry) Lookup(name string) (*ItemType, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// LookupPrefix resolves a type by its remote operation prefix.
func (r *Registry) LookupPrefix(prefix string) (*ItemType, bool) {
	t, ok := r.byPrefix[prefix]
	return t, ok
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []*ItemType {
	return r.ordered
}

// Names returns the sorted list of registered type keys, used in
// diagnostics so operators see what a document may contain.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SecurityTypes returns every type that can supply credentials to
// other types, sorted by name.
func (r *Registry) SecurityTypes() []*ItemType {
	var out []*ItemType
	for _, t := range r.ordered {
		if t.IsSecurity() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SecurityTypeNames returns the sorted names of all security-capable
// types.
func (r *Registry) SecurityTypeNames() []string {
	types := r.SecurityTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names
}

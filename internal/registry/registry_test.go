package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vorvix/zato/internal/client"
)

func TestLookup(t *testing.T) {
	r := New()

	ch, ok := r.Lookup("channel_amqp")
	if !ok {
		t.Fatal("channel_amqp not registered")
	}
	if dep := ch.ObjectDeps["def_name"]; dep.Type != "def_amqp" {
		t.Errorf("def_name dep = %+v", dep)
	}
	if _, ok := r.Lookup("no_such_type"); ok {
		t.Error("unknown type resolved")
	}
	if _, ok := r.LookupPrefix("zato.http-soap"); !ok {
		t.Error("http_soap prefix not resolvable")
	}
}

func TestItemTypeClassification(t *testing.T) {
	tests := []struct {
		name       string
		t          ItemType
		security   bool
		composite  bool
		definition bool
	}{
		{"basic auth", ItemType{Name: "basic_auth", Prefix: "zato.security.basic-auth"}, true, false, false},
		{"def_sec umbrella", ItemType{Name: "def_sec", Prefix: "zato.security"}, false, false, true},
		{"http_soap", ItemType{Name: "http_soap", Prefix: "zato.http-soap"}, false, true, false},
		{"def_amqp", ItemType{Name: "def_amqp", Prefix: "zato.definition.amqp"}, false, false, true},
		{"outconn_soap", ItemType{Name: "outconn_soap"}, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.IsSecurity(); got != tt.security {
				t.Errorf("IsSecurity = %v, want %v", got, tt.security)
			}
			if got := tt.t.IsComposite(); got != tt.composite {
				t.Errorf("IsComposite = %v, want %v", got, tt.composite)
			}
			if got := tt.t.IsDefinition(); got != tt.definition {
				t.Errorf("IsDefinition = %v, want %v", got, tt.definition)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	plain := ItemType{Name: "channel_amqp"}
	if got := plain.Identity(map[string]any{"name": "x"}); got != "x" {
		t.Errorf("plain identity = %q", got)
	}

	composite := ItemType{Name: "http_soap"}
	item := map[string]any{"name": "x", "connection": "channel", "transport": "soap"}
	if got := composite.Identity(item); got != "channel/soap/x" {
		t.Errorf("composite identity = %q", got)
	}
}

func TestRequiredFields(t *testing.T) {
	t.Run("alias and cluster id", func(t *testing.T) {
		ch := ItemType{Name: "channel_amqp"}
		ch.SetOperation(VerbCreate, Operation{
			Name:          "zato.channel.amqp.create",
			InputRequired: []string{"cluster_id", "name", "def_id", "service_name"},
		})
		got := ch.RequiredFields()
		want := map[string]bool{"name": true, "def_name": true, "service_name": true}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("RequiredFields = %v, want %v", got, want)
		}
	})

	t.Run("sql password", func(t *testing.T) {
		sql := ItemType{Name: "outconn_sql"}
		sql.SetOperation(VerbCreate, Operation{
			Name:          "zato.outgoing.sql.create",
			InputRequired: []string{"cluster_id", "name"},
		})
		if got := sql.RequiredFields(); !got["password"] {
			t.Errorf("sql type must require a password, got %v", got)
		}
	})

	t.Run("no create operation", func(t *testing.T) {
		if got := (&ItemType{Name: "channel_soap"}).RequiredFields(); got != nil {
			t.Errorf("RequiredFields = %v, want nil", got)
		}
	})
}

func TestTypeNameForPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"zato.definition.amqp", "def_amqp"},
		{"zato.outgoing.sql", "outconn_sql"},
		{"zato.security.basic-auth", "basic_auth"},
		{"zato.security.rbac.role", "rbac_role"},
		{"zato.security.tech-account", "tech_acc"},
		{"zato.scheduler.job", "scheduler"},
		{"zato.email.smtp", "email_smtp"},
		{"zato.something.new", "zato_something_new"},
	}
	for _, tt := range tests {
		if got := TypeNameForPrefix(tt.prefix); got != tt.want {
			t.Errorf("TypeNameForPrefix(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

type specInvoker struct {
	services []string
}

func (s specInvoker) Invoke(context.Context, string, map[string]any) (*client.Response, error) {
	list := make([]any, len(s.services))
	for i, name := range s.services {
		list[i] = map[string]any{
			"name": name,
			"simple_io": map[string]any{
				"zato": map[string]any{
					"input_required": []any{map[string]any{"name": "cluster_id"}},
				},
			},
		}
	}
	return &client.Response{OK: true, Data: map[string]any{
		"namespaces": map[string]any{"": map[string]any{"services": list}},
	}}, nil
}

func TestPopulateFromServer(t *testing.T) {
	r := New()
	inv := specInvoker{services: []string{
		"zato.channel.amqp.get-list",
		"zato.channel.amqp.create",
		"zato.channel.amqp.edit",
		"zato.security.basic-auth.get-list",
		"zato.security.basic-auth.create",
		"zato.security.basic-auth.edit",
		"zato.security.basic-auth.change-password",
		// No create: not manageable, must be skipped.
		"zato.service.get-list",
		"zato.service.edit",
	}}
	if err := r.PopulateFromServer(context.Background(), inv, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	ch, _ := r.Lookup("channel_amqp")
	if got := ch.OperationName(VerbCreate); got != "zato.channel.amqp.create" {
		t.Errorf("create op = %q", got)
	}
	if op, ok := ch.Operation(VerbList); !ok || op.InputRequired[0] != "cluster_id" {
		t.Errorf("list op = %+v/%v", op, ok)
	}

	auth, ok := r.Lookup("basic_auth")
	if !ok {
		t.Fatal("introspected basic_auth type not registered")
	}
	if !auth.IsSecurity() {
		t.Error("basic_auth must be security-capable")
	}
	if !auth.HasOperation(VerbChangePassword) {
		t.Error("change-password operation missing")
	}

	if _, ok := r.Lookup("zato_service"); ok {
		t.Error("incomplete verb triple must not register a type")
	}
	names := r.SecurityTypeNames()
	if len(names) != 1 || names[0] != "basic_auth" {
		t.Errorf("SecurityTypeNames = %v", names)
	}
}

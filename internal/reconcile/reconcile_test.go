package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vorvix/zato/internal/client"
	"github.com/vorvix/zato/internal/registry"
)

// fakeInvoker records every operation invoked and answers from a
// canned handler.
type fakeInvoker struct {
	calls   []string
	handler func(op string, req map[string]any) *client.Response
}

func (f *fakeInvoker) Invoke(_ context.Context, op string, req map[string]any) (*client.Response, error) {
	f.calls = append(f.calls, op)
	if f.handler != nil {
		if resp := f.handler(op, req); resp != nil {
			return resp, nil
		}
	}
	return &client.Response{OK: true}, nil
}

func (f *fakeInvoker) ClusterID() int { return 1 }

func okList(items ...map[string]any) *client.Response {
	data := make([]any, len(items))
	for i, it := range items {
		data[i] = it
	}
	return &client.Response{OK: true, Data: data}
}

func svc(name string, required ...string) map[string]any {
	fields := make([]any, len(required))
	for i, r := range required {
		fields[i] = map[string]any{"name": r}
	}
	return map[string]any{
		"name": name,
		"simple_io": map[string]any{
			"zato": map[string]any{"input_required": fields},
		},
	}
}

func apiSpec(services ...map[string]any) *client.Response {
	list := make([]any, len(services))
	for i, s := range services {
		list[i] = s
	}
	return &client.Response{OK: true, Data: map[string]any{
		"namespaces": map[string]any{
			"": map[string]any{"services": list},
		},
	}}
}

// testRegistry builds a registry with operation metadata for the types
// the tests exercise, ingested the same way a live run would.
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	spec := apiSpec(
		svc("zato.channel.amqp.get-list", "cluster_id"),
		svc("zato.channel.amqp.create", "cluster_id", "name", "def_id", "service_name"),
		svc("zato.channel.amqp.edit", "cluster_id", "id", "name", "def_id", "service_name"),
		svc("zato.http-soap.get-list", "cluster_id"),
		svc("zato.http-soap.create", "cluster_id", "name", "connection", "transport"),
		svc("zato.http-soap.edit", "cluster_id", "id", "name", "connection", "transport"),
		svc("zato.security.get-list", "cluster_id"),
		svc("zato.security.create", "cluster_id", "name"),
		svc("zato.security.edit", "cluster_id", "id", "name"),
		svc("zato.definition.amqp.get-list", "cluster_id"),
		svc("zato.definition.amqp.create", "cluster_id", "name", "host"),
		svc("zato.definition.amqp.edit", "cluster_id", "id", "name", "host"),
		svc("zato.definition.amqp.delete", "id"),
		svc("zato.security.basic-auth.get-list", "cluster_id"),
		svc("zato.security.basic-auth.create", "cluster_id", "name", "username"),
		svc("zato.security.basic-auth.edit", "cluster_id", "id", "name", "username"),
		svc("zato.security.basic-auth.change-password", "id"),
		svc("zato.outgoing.sql.get-list", "cluster_id"),
		svc("zato.outgoing.sql.create", "cluster_id", "name", "host"),
		svc("zato.outgoing.sql.edit", "cluster_id", "id", "name", "host"),
		svc("zato.outgoing.sql.change-password", "id"),
		svc("zato.security.rbac.role.get-list", "cluster_id"),
		svc("zato.security.rbac.role.create", "cluster_id", "name"),
		svc("zato.security.rbac.role.edit", "cluster_id", "id", "name"),
	)

	inv := &fakeInvoker{handler: func(op string, _ map[string]any) *client.Response {
		if op == "zato.apispec.get-api-spec" {
			return spec
		}
		return nil
	}}

	reg := registry.New()
	if err := reg.PopulateFromServer(context.Background(), inv, zerolog.Nop()); err != nil {
		t.Fatalf("PopulateFromServer: %v", err)
	}
	return reg
}

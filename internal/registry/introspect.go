package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vorvix/zato/internal/client"
)

// Invoker is the slice of the remote API the registry needs to ingest
// operation metadata.
type Invoker interface {
	Invoke(ctx context.Context, operation string, request map[string]any) (*client.Response, error)
}

// shortnameByPrefix maps remote operation prefixes to the short type
// names used in configuration documents. A pair whose prefix ends in a
// period matches any prefix below it and keeps the remainder; other
// pairs must match exactly.
var shortnameByPrefix = [][2]string{
	{"zato.definition.", "def"},
	{"zato.email.", "email"},
	{"zato.message.namespace", "def_namespace"},
	{"zato.cloud.aws.s3", "cloud_aws_s3"},
	{"zato.cloud.openstack.swift", "def_cloud_openstack_swift"},
	{"zato.message.xpath", "xpath"},
	{"zato.message.json-pointer", "json_pointer"},
	{"zato.notif.", "notif"},
	{"zato.outgoing.", "outconn"},
	{"zato.scheduler.job", "scheduler"},
	{"zato.search.", "search"},
	{"zato.security.tech-account", "tech_acc"},
	{"zato.security.tls.channel", "tls_channel_sec"},
	{"zato.security.xpath", "xpath_sec"},
	{"zato.security.", ""},
}

var escapePattern = regexp.MustCompile(`[.-]`)

// TypeNameForPrefix derives the document type key for an operation
// prefix unknown to the static table.
func TypeNameForPrefix(prefix string) string {
	escaped := escapePattern.ReplaceAllString(prefix, "_")
	for _, pair := range shortnameByPrefix {
		modPrefix, short := pair[0], pair[1]
		switch {
		case strings.HasSuffix(modPrefix, ".") && strings.HasPrefix(prefix, modPrefix):
			name := escaped[len(modPrefix):]
			if short != "" {
				name = short + "_" + name
			}
			return name
		case prefix == modPrefix:
			return short
		}
	}
	return escaped
}

type specPayload struct {
	Namespaces map[string]struct {
		Services []specService `json:"services"`
	} `json:"namespaces"`
}

type specService struct {
	Name     string `json:"name"`
	SimpleIO struct {
		Zato struct {
			InputRequired []struct {
				Name string `json:"name"`
			} `json:"input_required"`
		} `json:"zato"`
	} `json:"simple_io"`
}

// PopulateFromServer fetches the server's API introspection output and
// merges the verb-to-operation mapping into the registry. Prefixes
// lacking the list/create/edit triple are not manageable as catalog
// items and are skipped; prefixes unknown to the static table gain a
// fresh type entry so introspected object classes (the concrete
// security mechanisms in particular) become first-class.
func (r *Registry) PopulateFromServer(ctx context.Context, inv Invoker, log zerolog.Logger) error {
	resp, err := inv.Invoke(ctx, "zato.apispec.get-api-spec", map[string]any{
		"return_internal": true,
	})
	if err != nil {
		return fmt.Errorf("fetching API spec: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("could not fetch API spec: %s", resp.Details)
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("re-encoding API spec: %w", err)
	}
	var payload specPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decoding API spec: %w", err)
	}

	byPrefix := make(map[string]map[string]specService)
	for _, svc := range payload.Namespaces[""].Services {
		idx := strings.LastIndex(svc.Name, ".")
		if idx < 0 {
			continue
		}
		prefix, verb := svc.Name[:idx], svc.Name[idx+1:]
		if byPrefix[prefix] == nil {
			byPrefix[prefix] = make(map[string]specService)
		}
		byPrefix[prefix][verb] = svc
	}

	for prefix, verbs := range byPrefix {
		if !hasAll(verbs, VerbList, VerbCreate, VerbEdit) {
			continue
		}

		t, ok := r.byPrefix[prefix]
		if !ok {
			t = &ItemType{Name: TypeNameForPrefix(prefix), Prefix: prefix}
			r.add(t)
			log.Debug().Str("prefix", prefix).Str("type", t.Name).Msg("registered introspected type")
		}
		for verb, svc := range verbs {
			required := make([]string, 0, len(svc.SimpleIO.Zato.InputRequired))
			for _, f := range svc.SimpleIO.Zato.InputRequired {
				required = append(required, f.Name)
			}
			t.SetOperation(verb, Operation{Name: svc.Name, InputRequired: required})
		}
	}
	return nil
}

func hasAll(verbs map[string]specService, names ...string) bool {
	for _, n := range names {
		if _, ok := verbs[n]; !ok {
			return false
		}
	}
	return true
}

package reconcile

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/registry"
)

func TestScanGroupsMissingByTarget(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	// Two channels depend on the same missing definition: one missing
	// entry with both dependents, not two entries.
	u := Universe{
		"channel_amqp": {
			{"name": "x", "def_name": "my-def"},
			{"name": "y", "def_name": "my-def"},
		},
	}

	missing := s.CollectMissing(u)
	key := [2]string{"def_amqp", "my-def"}
	if len(missing) != 1 {
		t.Fatalf("expected 1 missing target, got %d: %v", len(missing), missing)
	}
	if got := missing[key]; !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("dependents = %v, want [x y]", got)
	}
}

func TestScanSatisfiedDependency(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	u := Universe{
		"channel_amqp": {{"name": "x", "def_name": "my-def"}},
		"def_amqp":     {{"name": "my-def", "host": "example"}},
	}

	if result := s.Scan(u); !result.OK() {
		t.Errorf("expected clean scan, got %v", result.Warnings)
	}
}

func TestScanEmptySentinelSkipsRule(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	u := Universe{
		"http_soap": {
			{"name": "x", "connection": "channel", "transport": "plain_http", "sec_def": registry.NoSecurityNeeded},
		},
	}

	if result := s.Scan(u); !result.OK() {
		t.Errorf("sentinel value must not be scanned, got %v", result.Warnings)
	}
}

func TestScanEmptyValueWithoutSentinel(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	// channel_amqp's def_name rule declares no sentinel, so an empty
	// string is an unresolvable reference, not an opt-out.
	u := Universe{
		"channel_amqp": {{"name": "x", "def_name": ""}},
	}

	result := s.Scan(u)
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
	}
	w := result.Warnings[0]
	if w.Code != diag.WarnMissingDef {
		t.Errorf("code = %v, want %v", w.Code, diag.WarnMissingDef)
	}
	def := w.Raw.(MissingDef)
	if def.Type != "def_amqp" || def.Value != "" {
		t.Errorf("target = (%s, %q), want (def_amqp, \"\")", def.Type, def.Value)
	}
	if !reflect.DeepEqual(def.Dependents, []string{"x"}) {
		t.Errorf("dependents = %v, want [x]", def.Dependents)
	}
}

func TestScanEmptyValueUnderSentinelRule(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	// An empty string is not the sentinel either: only the declared
	// value opts out of the check.
	u := Universe{
		"http_soap": {
			{"name": "x", "connection": "channel", "transport": "plain_http", "sec_def": ""},
		},
	}

	result := s.Scan(u)
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
	}
	def := result.Warnings[0].Raw.(MissingDef)
	if def.Type != "def_sec" || def.Value != "" {
		t.Errorf("target = (%s, %q), want (def_sec, \"\")", def.Type, def.Value)
	}
}

func TestScanWarningContent(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	u := Universe{
		"channel_amqp": {{"name": "x", "def_name": "my-def"}},
		"def_amqp":     {{"name": "other-def", "host": "example"}},
	}

	result := s.Scan(u)
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	w := result.Warnings[0]
	if w.Code != diag.WarnMissingDef {
		t.Errorf("code = %v, want %v", w.Code, diag.WarnMissingDef)
	}
	def, ok := w.Raw.(MissingDef)
	if !ok {
		t.Fatalf("raw context is %T, want MissingDef", w.Raw)
	}
	if def.Type != "def_amqp" || def.Value != "my-def" {
		t.Errorf("target = (%s, %s), want (def_amqp, my-def)", def.Type, def.Value)
	}
	if !reflect.DeepEqual(def.Dependents, []string{"x"}) {
		t.Errorf("dependents = %v, want [x]", def.Dependents)
	}
	if !reflect.DeepEqual(def.Existing, []string{"other-def"}) {
		t.Errorf("existing = %v, want [other-def]", def.Existing)
	}
	if !strings.Contains(w.Message, "my-def") {
		t.Errorf("message %q does not name the missing value", w.Message)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	u := Universe{
		"channel_amqp": {
			{"name": "x", "def_name": "a"},
			{"name": "y", "def_name": "b"},
		},
	}

	first := s.Scan(u)
	second := s.Scan(u)
	if len(first.Warnings) != len(second.Warnings) {
		t.Fatalf("warning counts differ: %d vs %d", len(first.Warnings), len(second.Warnings))
	}
	for i := range first.Warnings {
		if first.Warnings[i].Message != second.Warnings[i].Message {
			t.Errorf("warning %d differs: %q vs %q", i, first.Warnings[i].Message, second.Warnings[i].Message)
		}
		if first.Warnings[i].Code != second.Warnings[i].Code {
			t.Errorf("warning %d code differs", i)
		}
	}
}

func TestScanSortedOrder(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t)}

	u := Universe{
		"channel_amqp": {
			{"name": "x", "def_name": "zz"},
			{"name": "y", "def_name": "aa"},
		},
	}

	result := s.Scan(u)
	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(result.Warnings))
	}
	first := result.Warnings[0].Raw.(MissingDef)
	second := result.Warnings[1].Raw.(MissingDef)
	if first.Value != "aa" || second.Value != "zz" {
		t.Errorf("warnings not in sorted order: %s before %s", first.Value, second.Value)
	}
}

func TestScanIgnoreMissing(t *testing.T) {
	s := &Scanner{Registry: testRegistry(t), IgnoreMissing: true}

	u := Universe{
		"channel_amqp": {{"name": "x", "def_name": "my-def"}},
	}

	if result := s.Scan(u); !result.OK() {
		t.Errorf("IgnoreMissing must suppress warnings, got %v", result.Warnings)
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runVersion(t *testing.T, format string) (string, error) {
	t.Helper()
	buildVersion, buildCommit, buildDate = "1.2.3", "abc1234", "2026-08-26"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionOutput = format
	err := versionCmd.RunE(versionCmd, nil)
	return buf.String(), err
}

func TestVersionOutputFormats(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := runVersion(t, "text")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(out, "enmasse 1.2.3\n") || !strings.Contains(out, "commit: abc1234") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("short", func(t *testing.T) {
		out, err := runVersion(t, "short")
		if err != nil {
			t.Fatal(err)
		}
		if out != "1.2.3\n" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := runVersion(t, "json")
		if err != nil {
			t.Fatal(err)
		}
		var info map[string]string
		if err := json.Unmarshal([]byte(out), &info); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if info["version"] != "1.2.3" || info["commit"] != "abc1234" {
			t.Errorf("info = %v", info)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := runVersion(t, "xml"); err == nil {
			t.Error("expected an error for an unknown format")
		}
	})
}

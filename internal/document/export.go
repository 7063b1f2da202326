package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/vorvix/zato/internal/reconcile"
	"github.com/vorvix/zato/internal/registry"
)

var timestampPattern = regexp.MustCompile(`[.:]`)

// Exporter writes a consolidated universe out as one dump file.
type Exporter struct {
	Dir      string
	Codec    Codec
	Registry *registry.Registry

	// Now is the clock used for the output file name; overridable in
	// tests. The local timezone is intentional: the name is for the
	// operator, not for machines.
	Now func() time.Time
}

// Write renders the universe and writes it to a timestamped file in
// Dir, returning the file's path. Concrete security types are wrapped
// back under the umbrella def_sec key with their type recorded, the
// shape older documents expect.
func (e *Exporter) Write(u reconcile.Universe) (string, error) {
	output := make(map[string]any, len(u))
	for typeName, items := range u {
		output[typeName] = items
	}

	secItems := []reconcile.Item{}
	for _, t := range e.Registry.SecurityTypes() {
		items, ok := output[t.Name].([]reconcile.Item)
		if !ok {
			continue
		}
		delete(output, t.Name)
		for _, item := range items {
			wrapped := item.Clone()
			wrapped["type"] = t.Name
			secItems = append(secItems, wrapped)
		}
	}
	output["def_sec"] = secItems

	for _, raw := range output {
		items, ok := raw.([]reconcile.Item)
		if !ok {
			continue
		}
		for _, item := range items {
			reconcile.NormalizeServiceName(item)
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].ID() < items[j].ID() })
	}

	data, err := e.Codec.Dump(output)
	if err != nil {
		return "", fmt.Errorf("rendering export: %w", err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	stamp := timestampPattern.ReplaceAllString(now().Format("2006-01-02T15:04:05.000000"), "_")
	path := filepath.Join(e.Dir, "zato-export-"+stamp+e.Codec.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

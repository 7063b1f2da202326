package document

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/reconcile"
	"github.com/vorvix/zato/internal/registry"
)

// Parser reads one configuration document, resolving include
// directives recursively, and produces an item universe. Security
// definitions written under the umbrella def_sec key are expanded out
// to their concrete security type buckets.
type Parser struct {
	path     string
	codec    Codec
	registry *registry.Registry

	universe     reconcile.Universe
	seenIncludes map[string]bool
}

// NewParser builds a parser for one document file.
func NewParser(path string, codec Codec, reg *registry.Registry) *Parser {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Parser{
		path:         abs,
		codec:        codec,
		registry:     reg,
		seenIncludes: make(map[string]bool),
	}
}

// Parse reads the document and returns the resulting universe. The
// universe is only meaningful when the result is clean.
func (p *Parser) Parse() (reconcile.Universe, *diag.Result) {
	result := &diag.Result{}
	p.universe = make(reconcile.Universe)

	doc := p.parseFile(p.path, result)
	if !result.OK() {
		return nil, result
	}
	if !p.checkShape(p.path, doc, result) {
		return nil, result
	}
	p.parseItems(doc, result)
	return p.universe, result
}

func (p *Parser) parseFile(path string, result *diag.Result) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		result.AddError([2]any{path, err}, diag.ErrInvalidInput, "Failed to read %s: %v", path, err)
		return nil
	}
	doc, err := p.codec.Load(data)
	if err != nil {
		result.AddError([2]any{path, err}, diag.ErrInvalidInput, "Failed to parse %s: %v", path, err)
		return nil
	}
	return doc
}

// checkShape reports whether a full document has the required
// type-key-to-item-list shape, recording one error per structural
// problem found. Raw includes holding a single item are exempt.
func (p *Parser) checkShape(path string, doc map[string]any, result *diag.Result) bool {
	issues, err := CheckShape(doc)
	if err != nil {
		result.AddError([2]any{path, err}, diag.ErrInvalidInput, "Could not check %s: %v", path, err)
		return false
	}
	for _, issue := range issues {
		result.AddError([2]any{path, issue}, diag.ErrInvalidInput,
			"Document %s is malformed at '%s': %s", path, issue.Path, issue.Message)
	}
	return len(issues) == 0
}

func (p *Parser) parseItems(doc map[string]any, result *diag.Result) {
	for itemType, raw := range doc {
		items, ok := raw.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			p.parseItem(itemType, item, result)
		}
	}
}

func (p *Parser) parseItem(itemType string, raw any, result *diag.Result) {
	if include, ok := raw.(string); ok {
		p.loadInclude(itemType, include, result)
		return
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		result.AddError([2]any{itemType, raw}, diag.ErrInvalidInput,
			"Item of type '%s' is neither an object nor an include path: %v", itemType, raw)
		return
	}

	item := reconcile.Item(fields)
	reconcile.NormalizeServiceName(item)
	if itemType == "def_sec" {
		p.parseSecDef(item, result)
		return
	}
	p.universe[itemType] = append(p.universe[itemType], item)
}

// parseSecDef expands an umbrella security definition out to the
// concrete security type its declared type names.
func (p *Parser) parseSecDef(item reconcile.Item, result *diag.Result) {
	rawType, ok := item["type"]
	secType, _ := rawType.(string)
	if !ok || secType == "" {
		result.AddError([2]any{"def_sec", item}, diag.ErrTypeMissing,
			"Security definition %v has no required 'type' key (def_sec)", map[string]any(item))
		return
	}
	delete(item, "type")

	valid := p.registry.SecurityTypeNames()
	if _, ok := p.registry.Lookup(secType); !ok || !contains(valid, secType) {
		result.AddError([3]any{secType, valid, item}, diag.ErrInvalidSecDefType,
			"Invalid type '%s', must be one of %v (def_sec)", secType, valid)
		return
	}
	p.universe[secType] = append(p.universe[secType], item)
}

func (p *Parser) loadInclude(itemType, relPath string, result *diag.Result) {
	curDir := filepath.Dir(p.path)
	abs, err := filepath.Abs(filepath.Join(curDir, strings.TrimPrefix(relPath, "file://")))
	if err != nil {
		result.AddError([2]any{relPath, err}, diag.ErrIncludeParse, "Bad include path %s: %v", relPath, err)
		return
	}

	if p.seenIncludes[abs] {
		result.AddError([1]any{abs}, diag.ErrDuplicateInclude, "%s included repeatedly", abs)
	}
	p.seenIncludes[abs] = true

	doc := p.parseFile(abs, result)
	if doc == nil {
		return
	}

	if _, hasName := doc["name"]; hasName {
		p.parseItem(itemType, map[string]any(doc), result)
		return
	}
	if _, hasID := doc["id"]; hasID {
		p.parseItem(itemType, map[string]any(doc), result)
		return
	}
	// A fully formed document: include it wholesale so dump files can
	// be included or imported directly.
	if p.checkShape(abs, doc, result) {
		p.parseItems(doc, result)
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

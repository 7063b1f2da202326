// Package document reads and writes configuration documents: the
// JSON/YAML codecs, the include-resolving parser producing an item
// universe, and the export writer producing a consolidated dump file.
package document

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Codec serializes a whole configuration document.
type Codec interface {
	Extension() string
	Load(data []byte) (map[string]any, error)
	Dump(doc map[string]any) ([]byte, error)
}

// ForFormat returns the codec for a format flag value.
func ForFormat(format string) (Codec, error) {
	switch format {
	case "json":
		return JSONCodec{}, nil
	case "yaml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q, must be json or yaml", format)
	}
}

// JSONCodec reads and writes JSON documents.
type JSONCodec struct{}

func (JSONCodec) Extension() string { return ".json" }

func (JSONCodec) Load(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (JSONCodec) Dump(doc map[string]any) ([]byte, error) {
	return json.MarshalIndent(doc, "", " ")
}

// YAMLCodec reads and writes YAML documents.
type YAMLCodec struct{}

func (YAMLCodec) Extension() string { return ".yml" }

func (YAMLCodec) Load(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (YAMLCodec) Dump(doc map[string]any) ([]byte, error) {
	return yaml.Marshal(doc)
}

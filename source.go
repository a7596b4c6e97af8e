package simpleschema

import (
	"bytes"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// JSONBytes decodes a JSON document into the mapping shape Validate expects.
// Numbers are kept as json.Number so int fields are not silently widened.
func JSONBytes(b []byte) (map[string]any, error) {
	return JSONReader(bytes.NewReader(b))
}

// JSONReader decodes a JSON document from r.
func JSONReader(r io.Reader) (map[string]any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json document: %w", err)
	}
	return doc, nil
}

// YAMLBytes decodes a YAML document into the mapping shape Validate expects.
func YAMLBytes(b []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	return doc, nil
}

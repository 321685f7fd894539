package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// validateDocument checks raw YAML against the config schema before it is
// merged over the defaults, so typos in keys are reported instead of ignored.
func validateDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	// The validator expects JSON-shaped values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("converting document: %w", err)
	}

	return schema.Validate(v)
}

package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/config.schema.json
var schemaJSON []byte

// ValidateSchema validates raw config JSON against the embedded JSON
// Schema before Load parses it, surfacing every violation rather than
// stopping at the first one.
func ValidateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("config schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return fmt.Errorf("config does not match schema:\n  %s", strings.Join(messages, "\n  "))
}

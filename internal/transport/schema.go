package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildUploadResponseSchema returns the JSON-Schema (draft 2020-12
// subset) the pipeline's response envelope must satisfy. A response
// that fails this schema counts as malformed and triggers fallback.
func BuildUploadResponseSchema() map[string]any {
	conditionEnum := []any{"good", "moderate", "congested"}

	fileResult := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"filename":      map[string]any{"type": "string", "minLength": 1},
			"document_kind": map[string]any{"type": "string"},
			"record_count":  map[string]any{"type": "integer", "minimum": 0},
			"error":         map[string]any{"type": "string"},
			"processed_at":  map[string]any{"type": "string"},
		},
		"required": []string{"filename"},
	}

	record := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"source_file": map[string]any{"type": "string", "minLength": 1},
			"location":    map[string]any{"type": "string", "minLength": 1},
			"speed_kmh":   map[string]any{"type": "number"},
			"condition":   map[string]any{"type": "string", "enum": conditionEnum},
			"volume":      map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"source_file", "location", "speed_kmh", "condition"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"success":         map[string]any{"type": "boolean"},
			"processed_count": map[string]any{"type": "integer", "minimum": 0},
			"results":         map[string]any{"type": "array", "items": fileResult},
			"records":         map[string]any{"type": "array", "items": record},
			"error":           map[string]any{"type": "string"},
		},
		"required": []string{"success", "processed_count", "results"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

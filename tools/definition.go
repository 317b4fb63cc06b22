package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToolDefinition is a function an assistant may call.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema InputSchema
	Function    func(input json.RawMessage) (string, error)
}

// InputSchema is the object schema of a function's arguments.
type InputSchema struct {
	Properties any      `json:"properties"`
	Required   []string `json:"required,omitempty"`
}

// Object returns the schema as a complete JSON Schema object.
func (s InputSchema) Object() map[string]any {
	m := map[string]any{
		"type":       "object",
		"properties": s.Properties,
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

// GenerateSchema derives an InputSchema from the exported fields of T.
func GenerateSchema[T any]() InputSchema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return InputSchema{
		Properties: schema.Properties,
		Required:   schema.Required,
	}
}

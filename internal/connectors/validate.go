package connectors

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CompileValidator turns a ParamSpec map into a compiled JSON Schema
// validator over the minimal document BuildJSONSchemaDoc renders, which
// expresses exactly what ParamSpec already describes. The MCP registrar
// does not call it: mcpserver.Server.Register compiles the raw
// BuildJSONSchemaDoc document itself and validates tools/call arguments
// against that (spec.md §6).
func CompileValidator(name string, specs map[string]ParamSpec) (*jsonschema.Schema, error) {
	schemaDoc := BuildJSONSchemaDoc(specs)

	compiler := jsonschema.NewCompiler()
	resource := "mem://" + name + ".json"
	if err := compiler.AddResource(resource, schemaDoc); err != nil {
		return nil, fmt.Errorf("connectors: add schema resource for %s: %w", name, err)
	}
	return compiler.Compile(resource)
}

// BuildJSONSchemaDoc renders a ParamSpec map as a plain JSON Schema
// document, the same shape CompileValidator compiles internally. The
// external tool registrar's Register call needs this raw document, not a
// compiled *jsonschema.Schema, so it can run its own independent
// validation at the transport boundary (spec.md §6).
func BuildJSONSchemaDoc(specs map[string]ParamSpec) map[string]any {
	schemaDoc := map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           map[string]any{},
	}
	props := schemaDoc["properties"].(map[string]any)
	var required []string

	for key, spec := range specs {
		props[key] = jsonSchemaForParam(spec)
		if spec.Required {
			required = append(required, key)
		}
	}
	if len(required) > 0 {
		schemaDoc["required"] = required
	}
	return schemaDoc
}

func jsonSchemaForParam(spec ParamSpec) map[string]any {
	switch spec.Kind {
	case KindInteger:
		return map[string]any{"type": "integer"}
	case KindNumber:
		return map[string]any{"type": "number"}
	case KindBoolean:
		return map[string]any{"type": "boolean"}
	case KindArray:
		return map[string]any{"type": "array"}
	case KindObject:
		return map[string]any{"type": "object"}
	case KindEnum:
		return map[string]any{"type": "string", "enum": toAnySlice(spec.EnumValues)}
	default:
		return map[string]any{"type": "string"}
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ValidateParams validates a decoded params map against the compiled
// schema, returning a field-level error list when validation fails.
func ValidateParams(schema *jsonschema.Schema, params map[string]any) error {
	if err := schema.Validate(params); err != nil {
		return fmt.Errorf("connectors: params validation failed: %w", err)
	}
	return nil
}

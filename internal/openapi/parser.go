package openapi

import (
	"encoding/json"
	"fmt"
)

var operationMethods = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true, "delete": true,
}

// Parse walks a Swagger 2.0 document's paths and compiles every
// (path, method) pair into a ParsedOperation, in source document order
// (spec.md §4.B).
func Parse(doc *Document, apiName string) ([]ParsedOperation, error) {
	pathOrder, pathValues, err := orderedKeys(doc.pathsRaw)
	if err != nil {
		return nil, fmt.Errorf("openapi: walk paths for %s: %w", apiName, err)
	}

	var ops []ParsedOperation
	for _, path := range pathOrder {
		methodOrder, methodValues, err := orderedKeys(pathValues[path])
		if err != nil {
			return nil, fmt.Errorf("openapi: walk methods for path %q: %w", path, err)
		}
		for _, method := range methodOrder {
			if !operationMethods[method] {
				continue
			}
			op, err := parseOperation(doc, path, method, methodValues[method])
			if err != nil {
				return nil, fmt.Errorf("openapi: parse %s %s: %w", method, path, err)
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

type rawAnnotation struct {
	Family   string `json:"family"`
	Revision int    `json:"revision"`
	Status   string `json:"status"`
}

type rawOperation struct {
	OperationID string                     `json:"operationId"`
	Summary     string                     `json:"summary"`
	Description string                     `json:"description"`
	Deprecated  bool                       `json:"deprecated"`
	Parameters  []json.RawMessage          `json:"parameters"`
	Responses   map[string]json.RawMessage `json:"responses"`
	Visibility  string                     `json:"x-ms-visibility"`
	Trigger     json.RawMessage            `json:"x-ms-trigger"`
	Annotation  *rawAnnotation             `json:"x-ms-api-annotation"`
}

func parseOperation(doc *Document, path, method string, raw json.RawMessage) (ParsedOperation, error) {
	var ro rawOperation
	if err := json.Unmarshal(raw, &ro); err != nil {
		return ParsedOperation{}, err
	}

	operationID := ro.OperationID
	if operationID == "" {
		operationID = method + "_" + path
	}
	visibility := ro.Visibility
	if visibility == "" {
		visibility = "none"
	}

	var annotation *APIAnnotation
	if ro.Annotation != nil {
		annotation = &APIAnnotation{
			Family:   ro.Annotation.Family,
			Revision: ro.Annotation.Revision,
			Status:   ro.Annotation.Status,
		}
	}

	params, body, err := parseParameters(doc, ro.Parameters)
	if err != nil {
		return ParsedOperation{}, err
	}

	responseSchema, err := parseResponseSchema(doc, ro.Responses)
	if err != nil {
		return ParsedOperation{}, err
	}

	return ParsedOperation{
		OperationID:    operationID,
		Method:         method,
		Path:           path,
		Summary:        ro.Summary,
		Description:    ro.Description,
		Deprecated:     ro.Deprecated,
		Visibility:     visibility,
		IsTrigger:      len(ro.Trigger) > 0,
		APIAnnotation:  annotation,
		Parameters:     params,
		RequestBody:    body,
		ResponseSchema: responseSchema,
	}, nil
}

type rawDynamicValues struct {
	OperationID     string            `json:"operationId"`
	ValueCollection string            `json:"value-collection"`
	ValuePath       string            `json:"value-path"`
	ValueTitle      string            `json:"value-title"`
	Parameters      map[string]string `json:"parameters"`
}

type rawParameter struct {
	Ref           string            `json:"$ref"`
	Name          string            `json:"name"`
	In            string            `json:"in"`
	Type          string            `json:"type"`
	Format        string            `json:"format"`
	Required      bool              `json:"required"`
	Description   string            `json:"description"`
	Default       any               `json:"default"`
	Enum          []string          `json:"enum"`
	Schema        json.RawMessage   `json:"schema"`
	DynamicValues *rawDynamicValues `json:"x-ms-dynamic-values"`
}

// parseParameters walks an operation's parameters array, resolving any
// parameter-level $ref (single hop against the document's shared
// parameters section) and splitting out the single body parameter, if
// any, into a flattened RequestBody (spec.md §4.B.2-3).
func parseParameters(doc *Document, raw []json.RawMessage) ([]ParsedParameter, *RequestBody, error) {
	var params []ParsedParameter
	var body *RequestBody

	for _, entry := range raw {
		resolved := entry
		if ref, ok := refOf(entry); ok {
			if r, found := doc.resolveRef(ref); found {
				resolved = r
			}
		}

		var rp rawParameter
		if err := json.Unmarshal(resolved, &rp); err != nil {
			return nil, nil, err
		}

		if rp.In == "body" {
			schemaRaw := rp.Schema
			if ref, ok := refOf(schemaRaw); ok {
				if r, found := doc.resolveRef(ref); found {
					schemaRaw = r
				}
			}
			flattened, err := flattenBody(doc, schemaRaw, rp.Required)
			if err != nil {
				return nil, nil, err
			}
			body = flattened
			continue
		}

		var dv *DynamicValues
		if rp.DynamicValues != nil {
			dv = &DynamicValues{
				OperationID:     rp.DynamicValues.OperationID,
				ValueCollection: rp.DynamicValues.ValueCollection,
				ValuePath:       rp.DynamicValues.ValuePath,
				ValueTitle:      rp.DynamicValues.ValueTitle,
				Parameters:      rp.DynamicValues.Parameters,
			}
		}

		params = append(params, ParsedParameter{
			Name:          rp.Name,
			In:            rp.In,
			Type:          rp.Type,
			Format:        rp.Format,
			Required:      rp.Required,
			Description:   rp.Description,
			Default:       rp.Default,
			Enum:          rp.Enum,
			DynamicValues: dv,
		})
	}

	return params, body, nil
}

type rawSchema struct {
	Ref           string          `json:"$ref"`
	Type          string          `json:"type"`
	Format        string          `json:"format"`
	Description   string          `json:"description"`
	Required      []string        `json:"required"`
	PropertiesRaw json.RawMessage `json:"properties"`
	Enum          []string        `json:"enum"`
	Default       any             `json:"default"`
	Visibility    string          `json:"x-ms-visibility"`
}

// flattenBody resolves the body parameter's schema and produces the
// top-level property list in document order, marking nested objects with
// their own properties as the synthetic "string (JSON)" type per
// spec.md §4.B.3.
func flattenBody(doc *Document, schemaRaw json.RawMessage, required bool) (*RequestBody, error) {
	var schema rawSchema
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return nil, err
	}

	body := &RequestBody{
		Required:      required,
		RequiredNames: schema.Required,
	}

	if len(schema.PropertiesRaw) == 0 {
		return body, nil
	}

	propOrder, propValues, err := orderedKeys(schema.PropertiesRaw)
	if err != nil {
		return nil, fmt.Errorf("openapi: walk body properties: %w", err)
	}

	requiredSet := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		requiredSet[name] = true
	}

	const maxFlattenDepth = 2
	const topLevelDepth = 1

	for _, name := range propOrder {
		propRaw := propValues[name]
		if ref, ok := refOf(propRaw); ok {
			if r, found := doc.resolveRef(ref); found {
				propRaw = r
			}
		}

		var prop rawSchema
		if err := json.Unmarshal(propRaw, &prop); err != nil {
			return nil, fmt.Errorf("openapi: decode body property %q: %w", name, err)
		}

		if prop.Format == "binary" {
			continue
		}

		propType := prop.Type
		if propType == "object" && len(prop.PropertiesRaw) > 0 && topLevelDepth < maxFlattenDepth {
			propType = "string (JSON)"
		}

		visibility := prop.Visibility
		if visibility == "" {
			visibility = "none"
		}

		body.Properties = append(body.Properties, ParsedBodyProperty{
			Name:        name,
			Type:        propType,
			Format:      prop.Format,
			Description: prop.Description,
			Required:    requiredSet[name],
			Visibility:  visibility,
			Enum:        prop.Enum,
			Default:     prop.Default,
		})
	}

	return body, nil
}

type rawResponse struct {
	Schema json.RawMessage `json:"schema"`
}

// parseResponseSchema prefers the 200 response, falls back to 201, and
// resolves a single $ref hop. A missing schema (including 204 responses)
// yields nil.
func parseResponseSchema(doc *Document, responses map[string]json.RawMessage) (map[string]any, error) {
	raw, ok := responses["200"]
	if !ok {
		raw, ok = responses["201"]
	}
	if !ok {
		return nil, nil
	}

	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if len(resp.Schema) == 0 {
		return nil, nil
	}

	schemaRaw := resp.Schema
	if ref, ok := refOf(schemaRaw); ok {
		if r, found := doc.resolveRef(ref); found {
			schemaRaw = r
		}
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

package connectors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// InvocationEnvelope is the body POSTed to ARM's dynamicInvoke endpoint
// (spec.md §4.G).
type InvocationEnvelope struct {
	Request InvocationRequest `json:"request"`
}

// InvocationRequest is the inner "request" object of the envelope.
type InvocationRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    map[string]any    `json:"body,omitempty"`
	Queries map[string]string `json:"queries,omitempty"`
}

// BuildInvocationEnvelope maps validated tool params (keyed by their
// sanitized form) to the dynamicInvoke request envelope, substituting path
// parameters, collecting query parameters, and assembling the body in
// document order (spec.md §4.G).
func BuildInvocationEnvelope(op ParsedOperation, params map[string]any) (InvocationEnvelope, error) {
	invocationPath := stripConnectionIDSegment(op.Path)

	queries := map[string]string{}
	seenKeys := map[string]bool{}
	for _, p := range op.Parameters {
		if p.Name == "connectionId" {
			continue
		}
		key := SanitizeKey(p.Name)
		seenKeys[key] = true
		value, present := params[key]
		if !present {
			continue
		}
		switch p.In {
		case "path":
			invocationPath = strings.ReplaceAll(invocationPath, "{"+p.Name+"}", stringify(value))
		case "query":
			queries[p.Name] = stringify(value)
		}
	}

	var body map[string]any
	var headers map[string]string
	if op.RequestBody != nil {
		body = map[string]any{}
		for _, prop := range op.RequestBody.Properties {
			key := SanitizeKey(prop.Name)
			if seenKeys[key] {
				key = "body_" + key
			}
			seenKeys[key] = true

			value, present := params[key]
			if !present {
				value, present = params["body_"+key]
			}
			if !present {
				continue
			}

			if (prop.Type == "object" || prop.Type == "string (JSON)") && isString(value) {
				var parsed any
				if err := json.Unmarshal([]byte(value.(string)), &parsed); err == nil {
					value = parsed
				}
			}
			body[prop.Name] = value
		}
		headers = map[string]string{"Content-Type": "application/json"}
	}

	req := InvocationRequest{
		Method:  strings.ToUpper(op.Method),
		Path:    invocationPath,
		Headers: headers,
		Body:    body,
		Queries: nonEmpty(queries),
	}
	return InvocationEnvelope{Request: req}, nil
}

func stripConnectionIDSegment(path string) string {
	const prefix = "/{connectionId}"
	if strings.HasPrefix(path, prefix) {
		return strings.TrimPrefix(path, prefix)
	}
	return path
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func nonEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

// ExtractResponseBody pulls result.response.body out of a dynamicInvoke
// result if present, else returns the whole result (spec.md §4.G).
func ExtractResponseBody(result map[string]any) any {
	response, ok := result["response"].(map[string]any)
	if !ok {
		return result
	}
	if body, ok := response["body"]; ok {
		return body
	}
	return result
}

// FormatInvocationError wraps a failure into the bit-exact text prefix the
// translator must surface for a failed dynamic invocation (spec.md §4.G).
func FormatInvocationError(apiName, operationID string, err error) string {
	return fmt.Sprintf("Error invoking %s/%s: %s", apiName, operationID, err.Error())
}

package openapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a parsed Swagger 2.0 managed-API document. Paths keeps its
// raw form so the parser can walk it in source order (see ordered.go);
// definitions and shared parameters are looked up by name, so document
// order there doesn't matter.
type Document struct {
	pathsRaw         json.RawMessage
	definitions      map[string]json.RawMessage
	sharedParameters map[string]json.RawMessage
}

type rawDocument struct {
	Paths       json.RawMessage            `json:"paths"`
	Definitions map[string]json.RawMessage `json:"definitions"`
	Parameters  map[string]json.RawMessage `json:"parameters"`
}

// ParseDocument unmarshals a raw Swagger 2.0 document body (as fetched from
// the managed-API export endpoint).
func ParseDocument(data []byte) (*Document, error) {
	var rd rawDocument
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, fmt.Errorf("openapi: parse document: %w", err)
	}
	return &Document{
		pathsRaw:         rd.Paths,
		definitions:      rd.Definitions,
		sharedParameters: rd.Parameters,
	}, nil
}

// resolveRef dereferences a single-hop "#/definitions/X" or
// "#/parameters/X" pointer. Any other ref shape, or a name not found, is
// reported as unresolved; callers fall back to the original schema per
// spec.md §4.B.5.
func (d *Document) resolveRef(ref string) (json.RawMessage, bool) {
	const defPrefix = "#/definitions/"
	const paramPrefix = "#/parameters/"

	switch {
	case strings.HasPrefix(ref, defPrefix):
		name := strings.TrimPrefix(ref, defPrefix)
		raw, ok := d.definitions[name]
		return deepCopyRaw(raw), ok
	case strings.HasPrefix(ref, paramPrefix):
		name := strings.TrimPrefix(ref, paramPrefix)
		raw, ok := d.sharedParameters[name]
		return deepCopyRaw(raw), ok
	default:
		return nil, false
	}
}

// deepCopyRaw clones a json.RawMessage's backing bytes so a resolved
// definition can't be mutated by a later flattening step.
func deepCopyRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return cp
}

// refOf extracts a "$ref" string from a raw JSON object, if present.
func refOf(raw json.RawMessage) (string, bool) {
	var withRef struct {
		Ref string `json:"$ref"`
	}
	if err := json.Unmarshal(raw, &withRef); err != nil || withRef.Ref == "" {
		return "", false
	}
	return withRef.Ref, true
}

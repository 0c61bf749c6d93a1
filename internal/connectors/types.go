package connectors

import (
	"github.com/azure-tools/arm-connector-mcp/internal/openapi"
)

// Local aliases keep the rest of this package's signatures free of the
// openapi. prefix; the types themselves live in internal/openapi.
type (
	ParsedOperation    = openapi.ParsedOperation
	ParsedParameter    = openapi.ParsedParameter
	ParsedBodyProperty = openapi.ParsedBodyProperty
	RequestBody        = openapi.RequestBody
	Document           = openapi.Document
	APIAnnotation      = openapi.APIAnnotation
)

// ConnectionStatus mirrors the ARM connection resource's status field.
type ConnectionStatus string

const (
	StatusConnected      ConnectionStatus = "Connected"
	StatusUnauthenticated ConnectionStatus = "Unauthenticated"
	StatusError          ConnectionStatus = "Error"
	StatusUnknown        ConnectionStatus = "Unknown"
)

// ConnectionInfo is derived from an ARM connection resource (spec.md §3).
type ConnectionInfo struct {
	Name        string
	APIName     string
	DisplayName string
	Status      ConnectionStatus
	APIID       string
}

// ParamKind enumerates the shapes a tool parameter can take. The registrar
// validates against a minimal JSON Schema rendered from these by
// BuildJSONSchemaDoc, one plain type (plus enum values) per parameter
// (spec.md §4.D).
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindInteger ParamKind = "integer"
	KindNumber  ParamKind = "number"
	KindBoolean ParamKind = "boolean"
	KindArray   ParamKind = "array"
	KindObject  ParamKind = "object"
	KindEnum    ParamKind = "enum"
)

// ParamSpec is the abstract tool-parameter descriptor (spec.md §3).
type ParamSpec struct {
	Kind        ParamKind
	Required    bool
	Default     any
	EnumValues  []string
	Description string
}

// ToolBinding is what the registry stores per tool name: enough to
// reconstruct the invocation envelope and describe the tool (spec.md §3's
// ToolRegistry entry).
type ToolBinding struct {
	Connection ConnectionInfo
	Operation  ParsedOperation
	InputSchema map[string]ParamSpec
}

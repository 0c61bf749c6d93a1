package connectors

import (
	"regexp"
	"strings"
)

var disallowedKeyChar = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
var underscoreRun = regexp.MustCompile(`_+`)

// SanitizeKey maps an arbitrary parameter or property name to the external
// naming regex ^[a-zA-Z0-9_.-]{1,64}$ (spec.md §4.D).
func SanitizeKey(name string) string {
	s := disallowedKeyChar.ReplaceAllString(name, "_")
	s = strings.TrimLeft(s, ".-")
	s = underscoreRun.ReplaceAllString(s, "_")
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		s = "param"
	}
	return s
}

// GenerateSchema flattens a parsed operation into an insertion-ordered map
// of sanitized param name to ParamSpec (spec.md §4.D). The returned slice
// of keys preserves the order params and body properties were produced in,
// since Go maps don't.
func GenerateSchema(op ParsedOperation) (keys []string, specs map[string]ParamSpec) {
	specs = map[string]ParamSpec{}

	for _, p := range op.Parameters {
		if p.Name == "connectionId" {
			continue
		}
		key := SanitizeKey(p.Name)
		specs[key] = paramSpecFromParameter(p)
		keys = append(keys, key)
	}

	if op.RequestBody != nil {
		for _, prop := range op.RequestBody.Properties {
			key := SanitizeKey(prop.Name)
			if _, exists := specs[key]; exists {
				key = "body_" + key
			}
			specs[key] = paramSpecFromBodyProperty(prop)
			keys = append(keys, key)
		}
	}

	return keys, specs
}

func paramSpecFromParameter(p ParsedParameter) ParamSpec {
	spec := ParamSpec{Required: p.Required, Description: p.Description}
	switch {
	case p.Type == "integer":
		spec.Kind = KindInteger
		spec.Default = p.Default
	case p.Type == "boolean":
		spec.Kind = KindBoolean
		spec.Default = p.Default
	case p.Type == "array":
		spec.Kind = KindArray
	case p.Type == "string" && len(p.Enum) > 0:
		spec.Kind = KindEnum
		spec.EnumValues = p.Enum
		spec.Default = p.Default
	default:
		spec.Kind = KindString
		spec.Default = p.Default
	}
	return spec
}

func paramSpecFromBodyProperty(prop ParsedBodyProperty) ParamSpec {
	spec := ParamSpec{Required: prop.Required, Description: prop.Description}
	switch {
	case prop.Type == "integer" || prop.Type == "number":
		spec.Kind = KindNumber
		spec.Default = prop.Default
	case prop.Type == "boolean":
		spec.Kind = KindBoolean
		spec.Default = prop.Default
	case prop.Type == "array":
		spec.Kind = KindArray
	case prop.Type == "object" || prop.Type == "string (JSON)":
		spec.Kind = KindObject
	case prop.Type == "string" && len(prop.Enum) > 0:
		spec.Kind = KindEnum
		spec.EnumValues = prop.Enum
		spec.Default = prop.Default
	default:
		spec.Kind = KindString
		spec.Default = prop.Default
	}
	return spec
}

var snakeBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])|([A-Z]+)([A-Z][a-z])`)

// ToSnakeCase splits on lower-to-upper boundaries and on the tail of a run
// of capitals that precedes a capital+lowercase, per spec.md §4.E's
// examples (SendEmail -> send_email, V4CalendarPostItem ->
// v4_calendar_post_item).
func ToSnakeCase(s string) string {
	snaked := snakeBoundary.ReplaceAllString(s, "${1}${3}_${2}${4}")
	return strings.ToLower(snaked)
}

// BuildToolName composes the external tool name "<apiName>_<snake
// operationId>" and passes it through SanitizeKey, which replaces
// disallowed characters and truncates it to 64 characters (spec.md §4.E).
func BuildToolName(apiName, operationID string) string {
	name := apiName + "_" + ToSnakeCase(operationID)
	return SanitizeKey(name)
}

// BuildDescription composes "[<displayName>] <summary-or-description>",
// appending an unauthenticated warning when the connection isn't Connected
// (spec.md §4.E).
func BuildDescription(conn ConnectionInfo, op ParsedOperation) string {
	text := op.Summary
	if text == "" {
		text = op.Description
	}
	desc := "[" + conn.DisplayName + "] " + text
	if conn.Status != StatusConnected {
		desc += " ⚠️ Connection not authenticated"
	}
	return desc
}

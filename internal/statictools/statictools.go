// Package statictools implements the handful of tools whose shape is
// fixed at compile time rather than compiled from a Swagger document:
// list_managed_apis, put_connection, list_connections, get_consent_link,
// list_dynamic_tools, and refresh_tools (spec.md §6).
package statictools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/azure-tools/arm-connector-mcp/internal/arm"
	"github.com/azure-tools/arm-connector-mcp/internal/connectors"
	"github.com/azure-tools/arm-connector-mcp/internal/mcpserver"
)

// Registrar is the subset of mcpserver.Server this package needs.
type Registrar interface {
	Register(name, description string, inputSchema map[string]any, handler mcpserver.ToolHandler) error
}

// Suite wires the ARM pipeline, the dynamic tool registry, and the
// lifecycle coordinator into the six static tools.
type Suite struct {
	Pipeline    *arm.Pipeline
	Registry    *connectors.Registry
	Coordinator *connectors.Coordinator
}

// RegisterAll registers every static tool on r.
func (s *Suite) RegisterAll(r Registrar) error {
	registrations := []struct {
		name        string
		description string
		schema      map[string]any
		handler     mcpserver.ToolHandler
	}{
		{"list_managed_apis", "List Azure managed APIs available for new connections.", listManagedAPIsSchema, s.listManagedAPIs},
		{"put_connection", "Create or update an Azure API connection.", putConnectionSchema, s.putConnection},
		{"list_connections", "List existing Azure API connections in the resource group.", emptySchema, s.listConnections},
		{"get_consent_link", "Get an OAuth consent link for an API connection.", getConsentLinkSchema, s.getConsentLink},
		{"list_dynamic_tools", "List the dynamically compiled connector tools currently registered.", emptySchema, s.listDynamicTools},
		{"refresh_tools", "Clear the schema cache and re-scan connections for new or changed operations.", emptySchema, s.refreshTools},
	}
	for _, reg := range registrations {
		if err := r.Register(reg.name, reg.description, reg.schema, reg.handler); err != nil {
			return fmt.Errorf("statictools: register %s: %w", reg.name, err)
		}
	}
	return nil
}

var emptySchema = map[string]any{"type": "object", "properties": map[string]any{}}

var listManagedAPIsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"location":      map[string]any{"type": "string"},
		"microsoftOnly": map[string]any{"type": "boolean"},
	},
}

var putConnectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"connectionName":  map[string]any{"type": "string"},
		"managedApiName":  map[string]any{"type": "string"},
		"displayName":     map[string]any{"type": "string"},
		"parameterValues": map[string]any{"type": "object"},
		"location":        map[string]any{"type": "string"},
	},
	"required": []any{"connectionName", "managedApiName", "displayName"},
}

var getConsentLinkSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"connectionName": map[string]any{"type": "string"},
		"objectId":       map[string]any{"type": "string"},
		"tenantId":       map[string]any{"type": "string"},
	},
	"required": []any{"connectionName", "objectId"},
}

func (s *Suite) listManagedAPIs(ctx context.Context, args map[string]any) (mcpserver.CallToolResult, error) {
	location, _ := args["location"].(string)
	if location == "" {
		location = s.Pipeline.Ctx.Location
	}
	microsoftOnly := true
	if v, ok := args["microsoftOnly"].(bool); ok {
		microsoftOnly = v
	}

	path := fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Web/locations/%s/managedApis",
		s.Pipeline.Ctx.SubscriptionID, location)
	result, err := s.Pipeline.Do(ctx, http.MethodGet, path, arm.Options{})
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}

	if microsoftOnly {
		result = filterMicrosoftOnly(result)
	}
	return jsonResult(result)
}

func filterMicrosoftOnly(result map[string]any) map[string]any {
	values, ok := result["value"].([]any)
	if !ok {
		return result
	}
	filtered := make([]any, 0, len(values))
	for _, v := range values {
		item, ok := v.(map[string]any)
		if !ok {
			continue
		}
		props, _ := item["properties"].(map[string]any)
		if props == nil {
			continue
		}
		publisher, _ := props["publisher"].(string)
		if publisher == "Microsoft" {
			filtered = append(filtered, v)
		}
	}
	out := map[string]any{}
	for k, v := range result {
		out[k] = v
	}
	out["value"] = filtered
	return out
}

func (s *Suite) putConnection(ctx context.Context, args map[string]any) (mcpserver.CallToolResult, error) {
	connectionName, _ := args["connectionName"].(string)
	managedAPIName, _ := args["managedApiName"].(string)
	displayName, _ := args["displayName"].(string)
	parameterValues, _ := args["parameterValues"].(map[string]any)
	location, _ := args["location"].(string)
	if location == "" {
		location = s.Pipeline.Ctx.Location
	}

	body := map[string]any{
		"location": location,
		"properties": map[string]any{
			"displayName": displayName,
			"api": map[string]any{
				"id": fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Web/locations/%s/managedApis/%s",
					s.Pipeline.Ctx.SubscriptionID, location, managedAPIName),
			},
			"parameterValues": parameterValues,
		},
	}

	path := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/connections/%s",
		s.Pipeline.Ctx.SubscriptionID, s.Pipeline.Ctx.ResourceGroup, connectionName)
	result, err := s.Pipeline.Do(ctx, http.MethodPut, path, arm.Options{Body: body})
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}

	conn := connectionInfoFromPutResult(result)
	s.Coordinator.RegisterConnection(ctx, conn)

	return jsonResult(result)
}

func connectionInfoFromPutResult(result map[string]any) connectors.ConnectionInfo {
	name, _ := result["name"].(string)
	id, _ := result["id"].(string)
	props, _ := result["properties"].(map[string]any)

	var apiName, displayName, status string
	if props != nil {
		if api, ok := props["api"].(map[string]any); ok {
			apiName, _ = api["name"].(string)
		}
		displayName, _ = props["displayName"].(string)
		status, _ = props["statuses"].(string)
	}
	if status == "" {
		status = string(connectors.StatusUnknown)
	}
	return connectors.ConnectionInfo{
		Name: name, APIName: apiName, DisplayName: displayName,
		Status: connectors.ConnectionStatus(status), APIID: id,
	}
}

func (s *Suite) listConnections(ctx context.Context, _ map[string]any) (mcpserver.CallToolResult, error) {
	path := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/connections",
		s.Pipeline.Ctx.SubscriptionID, s.Pipeline.Ctx.ResourceGroup)
	result, err := s.Pipeline.Do(ctx, http.MethodGet, path, arm.Options{})
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Suite) getConsentLink(ctx context.Context, args map[string]any) (mcpserver.CallToolResult, error) {
	connectionName, _ := args["connectionName"].(string)
	objectID, _ := args["objectId"].(string)
	tenantID, _ := args["tenantId"].(string)
	if tenantID == "" {
		tenantID = "common"
	}

	body := map[string]any{
		"parameters": []map[string]any{
			{
				"parameterName": "token",
				"redirectUrl":   "http://localhost:8080",
				"objectId":      objectID,
				"tenantId":      tenantID,
			},
		},
	}

	path := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/connections/%s/listConsentLinks",
		s.Pipeline.Ctx.SubscriptionID, s.Pipeline.Ctx.ResourceGroup, connectionName)
	result, err := s.Pipeline.Do(ctx, http.MethodPost, path, arm.Options{
		APIVersion: arm.ConsentLinksAPIVersion,
		Body:       body,
	})
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Suite) listDynamicTools(ctx context.Context, _ map[string]any) (mcpserver.CallToolResult, error) {
	snapshot := s.Registry.Snapshot()
	names := make([]string, len(snapshot))
	for i, n := range snapshot {
		names[i] = n.Name
	}
	return jsonResult(map[string]any{"tools": names, "count": len(names)})
}

func (s *Suite) refreshTools(ctx context.Context, _ map[string]any) (mcpserver.CallToolResult, error) {
	tally, err := s.Coordinator.Refresh(ctx)
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	return mcpserver.TextResult(tally.String()), nil
}

func jsonResult(v any) (mcpserver.CallToolResult, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	return mcpserver.TextResult(string(encoded)), nil
}

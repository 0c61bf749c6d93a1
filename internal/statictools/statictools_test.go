package statictools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-tools/arm-connector-mcp/internal/arm"
	"github.com/azure-tools/arm-connector-mcp/internal/auth"
	"github.com/azure-tools/arm-connector-mcp/internal/connectors"
	"github.com/azure-tools/arm-connector-mcp/internal/mcpserver"
)

type routedDoer struct {
	t *testing.T
}

const managedAPIsListBody = `{
  "value": [
    {"name": "office365", "properties": {"publisher": "Microsoft"}},
    {"name": "thirdparty", "properties": {"publisher": "Acme Corp"}}
  ]
}`

const connectionsListBody = `{
  "value": [
    {"name": "office365conn", "id": "/conn/office365conn",
     "properties": {"api": {"name": "office365"}, "displayName": "My 365", "status": "Connected"}}
  ]
}`

const putConnectionResultBody = `{
  "name": "office365conn", "id": "/conn/office365conn",
  "properties": {"api": {"name": "office365"}, "displayName": "My 365", "statuses": "Connected"}
}`

const consentLinkBody = `{"value": [{"link": "https://login.microsoftonline.com/consent?..."}]}`

const managedAPIDocBody = `{
  "properties": {
    "swagger": {
      "paths": {
        "/{connectionId}/sendEmail": {
          "post": {
            "operationId": "SendEmail",
            "summary": "Send an email",
            "parameters": [
              {"name": "connectionId", "in": "path", "type": "string"},
              {"name": "to", "in": "query", "type": "string", "required": true}
            ],
            "responses": {}
          }
        }
      }
    }
  }
}`

func (d routedDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	switch {
	case strings.Contains(req.URL.Path, "/managedApis/"):
		body = managedAPIDocBody
	case strings.Contains(req.URL.Path, "/managedApis"):
		body = managedAPIsListBody
	case strings.Contains(req.URL.Path, "/listConsentLinks"):
		body = consentLinkBody
	case strings.Contains(req.URL.Path, "/connections/office365conn") && req.Method == http.MethodPut:
		body = putConnectionResultBody
	case strings.Contains(req.URL.Path, "/connections"):
		body = connectionsListBody
	default:
		d.t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
	}
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func testSuite(t *testing.T) (*Suite, *connectors.Registry) {
	p := arm.New(arm.Context{SubscriptionID: "sub", ResourceGroup: "rg", Location: "westus"},
		routedDoer{t: t},
		auth.ProviderFunc(func(context.Context) (auth.Token, error) { return auth.Token("tok"), nil }),
		nil, nil)
	registry := connectors.NewRegistry()
	coordinator := connectors.NewCoordinator(p, registry, nil, nil)
	return &Suite{Pipeline: p, Registry: registry, Coordinator: coordinator}, registry
}

func TestListManagedAPIs_FiltersToMicrosoftByDefault(t *testing.T) {
	s, _ := testSuite(t)
	result, err := s.listManagedAPIs(context.Background(), map[string]any{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	values := decoded["value"].([]any)
	require.Len(t, values, 1)
}

func TestListManagedAPIs_MicrosoftOnlyFalseKeepsAll(t *testing.T) {
	s, _ := testSuite(t)
	result, err := s.listManagedAPIs(context.Background(), map[string]any{"microsoftOnly": false})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	values := decoded["value"].([]any)
	require.Len(t, values, 2)
}

func TestPutConnection_RegistersOperationsViaCoordinator(t *testing.T) {
	s, registry := testSuite(t)
	result, err := s.putConnection(context.Background(), map[string]any{
		"connectionName": "office365conn",
		"managedApiName": "office365",
		"displayName":    "My 365",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "office365_send_email", snapshot[0].Name)
}

func TestListConnections_ReturnsRawEnvelope(t *testing.T) {
	s, _ := testSuite(t)
	result, err := s.listConnections(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, result.Content[0].Text, "office365conn")
}

func TestGetConsentLink_DefaultsTenantToCommon(t *testing.T) {
	s, _ := testSuite(t)
	result, err := s.getConsentLink(context.Background(), map[string]any{
		"connectionName": "office365conn",
		"objectId":       "obj-1",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Content[0].Text, "login.microsoftonline.com")
}

func TestListDynamicTools_ReportsRegisteredNames(t *testing.T) {
	s, registry := testSuite(t)
	require.NoError(t, registry.Put("office365_send_email", connectors.ToolBinding{}))

	result, err := s.listDynamicTools(context.Background(), map[string]any{})
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	assert.Equal(t, float64(1), decoded["count"])
}

func TestRefreshTools_ReturnsTallySummary(t *testing.T) {
	s, _ := testSuite(t)
	result, err := s.refreshTools(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, result.Content[0].Text, "registered=")
}

func TestRegisterAll_RegistersAllSixTools(t *testing.T) {
	s, _ := testSuite(t)
	server := mcpserver.New("test", "0.0.0", nil)
	require.NoError(t, s.RegisterAll(server))

	raw := server.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NotNil(t, raw)
	assert.Contains(t, string(raw), "list_managed_apis")
	assert.Contains(t, string(raw), "put_connection")
	assert.Contains(t, string(raw), "list_connections")
	assert.Contains(t, string(raw), "get_consent_link")
	assert.Contains(t, string(raw), "list_dynamic_tools")
	assert.Contains(t, string(raw), "refresh_tools")
}

package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "paths": {
    "/{connectionId}/sendEmail": {
      "post": {
        "operationId": "SendEmail",
        "summary": "Send an email",
        "x-ms-visibility": "important",
        "parameters": [
          { "$ref": "#/parameters/connectionIdParam" },
          { "name": "to", "in": "query", "type": "string", "required": true },
          {
            "name": "body", "in": "body", "required": true,
            "schema": { "$ref": "#/definitions/SendEmailRequest" }
          }
        ],
        "responses": { "200": { "schema": { "$ref": "#/definitions/SendEmailResponse" } } }
      }
    },
    "/{connectionId}/sendEmailV2": {
      "post": {
        "operationId": "SendEmailV2",
        "x-ms-api-annotation": { "family": "SendEmail", "revision": 2 },
        "parameters": [],
        "responses": {}
      }
    },
    "/{connectionId}/webhooks/$subscriptions": {
      "post": {
        "operationId": "SubscribeWebhook",
        "x-ms-trigger": "batch",
        "parameters": [],
        "responses": {}
      }
    },
    "/{connectionId}/internalOnly": {
      "get": {
        "operationId": "InternalOnly",
        "x-ms-visibility": "internal",
        "parameters": [],
        "responses": {}
      }
    }
  },
  "definitions": {
    "SendEmailRequest": {
      "type": "object",
      "required": ["to"],
      "properties": {
        "to": { "type": "string", "description": "recipient" },
        "attachmentBytes": { "type": "string", "format": "binary" },
        "metadata": {
          "type": "object",
          "properties": { "priority": { "type": "string" } }
        },
        "cc": { "type": "string" }
      }
    },
    "SendEmailResponse": {
      "type": "object",
      "properties": { "id": { "type": "string" } }
    }
  },
  "parameters": {
    "connectionIdParam": { "name": "connectionId", "in": "path", "type": "string", "required": true }
  }
}`

func mustParseOps(t *testing.T) []ParsedOperation {
	t.Helper()
	doc, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)
	ops, err := Parse(doc, "office365")
	require.NoError(t, err)
	return ops
}

func TestParse_WalksPathsInDocumentOrder(t *testing.T) {
	ops := mustParseOps(t)
	require.Len(t, ops, 4)
	assert.Equal(t, "SendEmail", ops[0].OperationID)
	assert.Equal(t, "SendEmailV2", ops[1].OperationID)
	assert.Equal(t, "SubscribeWebhook", ops[2].OperationID)
	assert.Equal(t, "InternalOnly", ops[3].OperationID)
}

func TestParse_ResolvesRefParameterAndBody(t *testing.T) {
	ops := mustParseOps(t)
	op := ops[0]

	require.Len(t, op.Parameters, 2)
	assert.Equal(t, "connectionId", op.Parameters[0].Name)
	assert.Equal(t, "path", op.Parameters[0].In)
	assert.Equal(t, "to", op.Parameters[1].Name)
	assert.Equal(t, "query", op.Parameters[1].In)

	require.NotNil(t, op.RequestBody)
	assert.True(t, op.RequestBody.Required)
	assert.Equal(t, []string{"to"}, op.RequestBody.RequiredNames)
}

func TestParse_FlattensBodyPropertiesInOrderAndSkipsBinary(t *testing.T) {
	ops := mustParseOps(t)
	props := ops[0].RequestBody.Properties

	var names []string
	for _, p := range props {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"to", "metadata", "cc"}, names, "attachmentBytes (binary) must be skipped, order preserved")

	var to, metadata ParsedBodyProperty
	for _, p := range props {
		switch p.Name {
		case "to":
			to = p
		case "metadata":
			metadata = p
		}
	}
	assert.True(t, to.Required)
	assert.Equal(t, "string", to.Type)
	assert.Equal(t, "string (JSON)", metadata.Type, "nested object with its own properties becomes synthetic string (JSON)")
}

func TestParse_ResolvesResponseSchema(t *testing.T) {
	ops := mustParseOps(t)
	require.NotNil(t, ops[0].ResponseSchema)
	assert.Equal(t, "object", ops[0].ResponseSchema["type"])
}

func TestParse_MissingResponseSchemaIsNil(t *testing.T) {
	ops := mustParseOps(t)
	assert.Nil(t, ops[1].ResponseSchema)
}

func TestParse_FallbackOperationIDWhenMissing(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"paths":{"/{connectionId}/x":{"get":{"parameters":[],"responses":{}}}}}`))
	require.NoError(t, err)
	ops, err := Parse(doc, "test")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "get_/{connectionId}/x", ops[0].OperationID)
}

func TestParse_DefaultsVisibilityToNone(t *testing.T) {
	ops := mustParseOps(t)
	assert.Equal(t, "none", ops[1].Visibility)
	assert.Equal(t, "important", ops[0].Visibility)
}

func TestParse_CapturesAnnotationAndTrigger(t *testing.T) {
	ops := mustParseOps(t)
	require.NotNil(t, ops[1].APIAnnotation)
	assert.Equal(t, "SendEmail", ops[1].APIAnnotation.Family)
	assert.Equal(t, 2, ops[1].APIAnnotation.Revision)
	assert.True(t, ops[2].IsTrigger)
	assert.False(t, ops[0].IsTrigger)
}

func TestParse_SkipsNonOperationMethodKeys(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
	  "paths": {
	    "/{connectionId}/x": {
	      "parameters": [{"name":"shared","in":"query","type":"string"}],
	      "get": {"operationId":"Get","parameters":[],"responses":{}}
	    }
	  }
	}`))
	require.NoError(t, err)
	ops, err := Parse(doc, "test")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "Get", ops[0].OperationID)
}

package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKeys_PreservesInsertionOrder(t *testing.T) {
	keys, values, err := orderedKeys(json.RawMessage(`{"c":1,"a":2,"b":3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, keys)
	assert.Equal(t, json.RawMessage("2"), values["a"])
}

func TestOrderedKeys_EmptyInputYieldsNil(t *testing.T) {
	keys, values, err := orderedKeys(nil)
	require.NoError(t, err)
	assert.Nil(t, keys)
	assert.Nil(t, values)
}

func TestOrderedKeys_RejectsNonObject(t *testing.T) {
	_, _, err := orderedKeys(json.RawMessage(`[1,2,3]`))
	assert.Error(t, err)
}

func TestResolveRef_DefinitionsAndParameters(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
	  "paths": {},
	  "definitions": {"Foo": {"type": "string"}},
	  "parameters": {"Bar": {"name": "bar", "in": "query"}}
	}`))
	require.NoError(t, err)

	raw, ok := doc.resolveRef("#/definitions/Foo")
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"string"}`, string(raw))

	raw, ok = doc.resolveRef("#/parameters/Bar")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"bar","in":"query"}`, string(raw))

	_, ok = doc.resolveRef("#/definitions/Missing")
	assert.False(t, ok)

	_, ok = doc.resolveRef("#/unsupported/Foo")
	assert.False(t, ok)
}

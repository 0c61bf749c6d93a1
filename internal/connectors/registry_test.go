package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutAndGet(t *testing.T) {
	r := NewRegistry()
	binding := ToolBinding{Connection: ConnectionInfo{Name: "conn1"}}
	require.NoError(t, r.Put("office365_send_email", binding))

	got, ok := r.Get("office365_send_email")
	require.True(t, ok)
	assert.Equal(t, "conn1", got.Connection.Name)
}

func TestRegistry_PutRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put("x", ToolBinding{}))
	err := r.Put("x", ToolBinding{})
	assert.Error(t, err)
}

func TestRegistry_HasPrefix(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put("office365_send_email", ToolBinding{}))
	assert.True(t, r.HasPrefix("office365"))
	assert.False(t, r.HasPrefix("teams"))
}

func TestRegistry_SnapshotPreservesInsertionOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put("a", ToolBinding{}))
	require.NoError(t, r.Put("b", ToolBinding{}))
	snapshot := r.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].Name)
	assert.Equal(t, "b", snapshot[1].Name)
}

func TestRegistry_CacheLifecycle(t *testing.T) {
	r := NewRegistry()
	_, ok := r.CacheGet("office365")
	assert.False(t, ok)

	doc := &Document{}
	r.CachePut("office365", doc)
	got, ok := r.CacheGet("office365")
	require.True(t, ok)
	assert.Same(t, doc, got)

	r.CacheClear()
	_, ok = r.CacheGet("office365")
	assert.False(t, ok)
}

func TestRegistry_ClearAllEmptiesRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put("a", ToolBinding{}))
	r.ClearAll()
	assert.Empty(t, r.Snapshot())
	assert.False(t, r.HasPrefix("a"))
}

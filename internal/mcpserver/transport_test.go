package mcpserver

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioTransport_ReceiveSkipsBlankLinesAndTrimsCRLF(t *testing.T) {
	in := bytes.NewBufferString("\r\n\n{\"a\":1}\r\n")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out)

	line, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(line))
}

func TestStdioTransport_ReceiveReturnsEOFWhenExhausted(t *testing.T) {
	in := bytes.NewBufferString("")
	tr := NewStdioTransport(in, &bytes.Buffer{})
	_, err := tr.Receive(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStdioTransport_SendWritesMessageAndNewline(t *testing.T) {
	var out bytes.Buffer
	tr := NewStdioTransport(bytes.NewBufferString(""), &out)
	require.NoError(t, tr.Send(context.Background(), []byte(`{"ok":true}`)))
	assert.Equal(t, "{\"ok\":true}\n", out.String())
}

func TestStdioTransport_SendAfterCloseFails(t *testing.T) {
	var out bytes.Buffer
	tr := NewStdioTransport(bytes.NewBufferString(""), &out)
	require.NoError(t, tr.Close())
	assert.Error(t, tr.Send(context.Background(), []byte("{}")))
}

func TestStdioTransport_ReceiveRespectsContextCancellation(t *testing.T) {
	blocking := &blockingReader{}
	tr := NewStdioTransport(blocking, &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}

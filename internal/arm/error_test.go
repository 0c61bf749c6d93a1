package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeError_ParsesDocumentedEnvelope(t *testing.T) {
	body := []byte(`{"error":{"code":"InvalidParameter","message":"bad value"}}`)
	err := shapeError(400, body)
	assert.Equal(t, CodeInvalidParameter, err.Code)
	assert.Equal(t, "bad value", err.Message)
	assert.Equal(t, 400, err.StatusCode)
}

func TestShapeError_FallsBackOnUnrecognizedBody(t *testing.T) {
	err := shapeError(500, []byte("not json"))
	assert.Equal(t, CodeUnknownError, err.Code)
	assert.Equal(t, 500, err.StatusCode)
}

func TestShapeError_FallsBackOnEmptyCode(t *testing.T) {
	err := shapeError(500, []byte(`{"error":{"code":"","message":"x"}}`))
	assert.Equal(t, CodeUnknownError, err.Code)
}

func TestTransportError_UnwrapsCause(t *testing.T) {
	cause := assert.AnError
	err := &TransportError{Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestContext_BaseURL(t *testing.T) {
	c := Context{SubscriptionID: "sub"}
	assert.Equal(t, "https://management.azure.com", c.BaseURL())
}

func TestNewCorrelationID_UniquePerCall(t *testing.T) {
	a := newCorrelationID()
	b := newCorrelationID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

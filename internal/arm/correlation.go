package arm

import "github.com/google/uuid"

// Header names ARM expects on every request.
const (
	HeaderCorrelationRequestID = "x-ms-correlation-request-id"
	HeaderAuthorization        = "Authorization"
	HeaderContentType          = "Content-Type"
	HeaderUserAgent            = "User-Agent"
	HeaderRetryAfter           = "Retry-After"
)

// newCorrelationID mints a fresh UUID for one top-level armRequest call.
// Every retry of that call reuses the same id so ARM-side traces aggregate
// cleanly (spec.md §4.A, testable property 7).
func newCorrelationID() string {
	return uuid.New().String()
}

package arm

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// maxAttempts is the total number of attempts (1 initial + 3 retries) spec.md
// §4.A and testable property 6 require.
const maxAttempts = 4

// isRetryableStatus reports whether an HTTP status code should be retried:
// 429 or any 5xx.
func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// retryDelay computes how long to wait before the next attempt. When the
// response carries a parseable Retry-After (seconds), that value is used
// verbatim. Otherwise the delay is an exponential backoff (2^attempt
// seconds) plus uniform jitter in [0,1) seconds, per spec.md §4.A.
//
// attempt is 1-indexed: the delay computed after the first failed attempt
// uses attempt=1.
func retryDelay(attempt int, retryAfterHeader string, jitter func() float64) time.Duration {
	if retryAfterHeader != "" {
		if secs, err := strconv.Atoi(retryAfterHeader); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if jitter == nil {
		jitter = rand.Float64
	}
	backoff := math.Pow(2, float64(attempt))
	return time.Duration((backoff + jitter()) * float64(time.Second))
}

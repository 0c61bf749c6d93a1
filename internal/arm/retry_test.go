package arm

import (
	"net/http"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	cases := map[int]bool{
		200: false,
		400: false,
		403: false,
		404: false,
		429: true,
		500: true,
		502: true,
		503: true,
		599: true,
	}
	for status, want := range cases {
		assert.Equal(t, want, isRetryableStatus(status), "status %d", status)
	}
}

func TestRetryDelay_HonorsRetryAfterHeader(t *testing.T) {
	d := retryDelay(1, "7", nil)
	assert.Equal(t, 7*time.Second, d)
}

func TestRetryDelay_IgnoresUnparseableRetryAfter(t *testing.T) {
	d := retryDelay(1, "not-a-number", func() float64 { return 0 })
	assert.Equal(t, 2*time.Second, d)
}

func TestRetryDelay_ExponentialWithJitter(t *testing.T) {
	d := retryDelay(3, "", func() float64 { return 0.5 })
	assert.Equal(t, time.Duration(8.5*float64(time.Second)), d)
}

// Property: for any attempt in a plausible range and any jitter in [0,1), the
// backoff delay (absent a Retry-After header) is always at least 2^attempt
// seconds and strictly less than 2^attempt+1 seconds.
func TestRetryDelayProperty_BoundedByBackoffWindow(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("backoff delay stays within [2^n, 2^n+1) seconds", prop.ForAll(
		func(attempt int, jitter float64) bool {
			d := retryDelay(attempt, "", func() float64 { return jitter })
			lower := time.Duration(pow2(attempt)) * time.Second
			upper := lower + time.Second
			return d >= lower && d < upper
		},
		gen.IntRange(1, 6),
		gen.Float64Range(0, 0.999999),
	))

	properties.TestingRun(t)
}

func pow2(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 2
	}
	return v
}

func TestIsRetryableStatusProperty_OnlyTooManyRequestsOr5xx(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("retryable iff 429 or >=500", prop.ForAll(
		func(status int) bool {
			want := status == http.StatusTooManyRequests || status >= 500
			return isRetryableStatus(status) == want
		},
		gen.IntRange(100, 599),
	))

	properties.TestingRun(t)
}

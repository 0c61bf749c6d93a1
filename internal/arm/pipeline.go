// Package arm implements the ARM request pipeline: URL/header construction,
// correlation ids, retry-with-backoff, and error shaping. Every ARM-facing
// tool in this server funnels through Pipeline.Do so retry and error
// behavior stays in one place (spec.md §4.A).
package arm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/azure-tools/arm-connector-mcp/internal/auth"
	"github.com/azure-tools/arm-connector-mcp/internal/telemetry"
)

// DefaultAPIVersion is used by every ARM endpoint except listConsentLinks.
const DefaultAPIVersion = "2016-06-01"

// ConsentLinksAPIVersion is the api-version listConsentLinks requires.
const ConsentLinksAPIVersion = "2018-07-01-preview"

// Doer is the minimal HTTP client contract the pipeline needs; satisfied by
// *http.Client and easily faked in tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a single ARM call.
type Options struct {
	APIVersion string
	Query      map[string]string
	Body       any
	UserAgent  string
}

// Pipeline is the single chokepoint every ARM-facing tool calls through.
type Pipeline struct {
	Ctx     Context
	Client  Doer
	Tokens  auth.Provider
	Logger  telemetry.Logger
	Tracer  telemetry.Tracer

	// RequestTimeout bounds a single attempt (spec.md: 30s per attempt).
	RequestTimeout time.Duration
	// MaxRetries is the number of additional attempts beyond the first
	// (spec.md default: 3, for 4 total attempts).
	MaxRetries int
	// Limiter, when non-nil, throttles outbound ARM calls. Backpressure is
	// absent by design per spec.md §5; this is an optional safety valve, not
	// a requirement, and defaults to unset (no throttling).
	Limiter *rate.Limiter

	// sleep and jitter are overridable for deterministic tests.
	sleep  func(context.Context, time.Duration)
	jitter func() float64
}

// New builds a Pipeline with the documented defaults applied.
func New(armCtx Context, client Doer, tokens auth.Provider, logger telemetry.Logger, tracer telemetry.Tracer) *Pipeline {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Pipeline{
		Ctx:            armCtx,
		Client:         client,
		Tokens:         tokens,
		Logger:         logger,
		Tracer:         tracer,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     maxAttempts - 1,
	}
}

// Do issues an ARM request and returns the decoded JSON body. method is one
// of GET/POST/PUT/PATCH/DELETE; path is relative to the ARM base URL (it
// must already include the leading slash).
func (p *Pipeline) Do(ctx context.Context, method, path string, opts Options) (map[string]any, error) {
	ctx, span := p.Tracer.Start(ctx, "arm.request")
	defer span.End()

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("arm: rate limiter: %w", err)
		}
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	correlationID := newCorrelationID()
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, body, err := p.attempt(ctx, method, path, apiVersion, correlationID, opts)
		if err != nil {
			lastErr = &TransportError{Cause: err}
			p.Logger.Warn(ctx, "arm transport attempt failed",
				"component", "arm-pipeline", "method", method, "path", path,
				"attempt", attempt, "correlation_id", correlationID, "err", err)
			if attempt == maxAttempts {
				break
			}
			p.wait(ctx, retryDelay(attempt, "", p.jitter))
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return decodeBody(body)
		}

		if !isRetryableStatus(resp.StatusCode) {
			return nil, shapeError(resp.StatusCode, body)
		}

		armErr := shapeError(resp.StatusCode, body)
		lastErr = armErr
		p.Logger.Warn(ctx, "arm request returned retryable status",
			"component", "arm-pipeline", "method", method, "path", path,
			"attempt", attempt, "status", resp.StatusCode, "correlation_id", correlationID)
		if attempt == maxAttempts {
			break
		}
		p.wait(ctx, retryDelay(attempt, resp.Header.Get(HeaderRetryAfter), p.jitter))
	}

	return nil, lastErr
}

func (p *Pipeline) wait(ctx context.Context, d time.Duration) {
	if p.sleep != nil {
		p.sleep(ctx, d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (p *Pipeline) attempt(ctx context.Context, method, path, apiVersion, correlationID string, opts Options) (*http.Response, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	u, err := p.buildURL(path, apiVersion, opts.Query)
	if err != nil {
		return nil, nil, err
	}

	var bodyReader io.Reader
	methodUpper := method
	if methodUpper == http.MethodPut || methodUpper == http.MethodPost {
		if opts.Body != nil {
			encoded, err := json.Marshal(opts.Body)
			if err != nil {
				return nil, nil, fmt.Errorf("encode request body: %w", err)
			}
			bodyReader = bytes.NewReader(encoded)
		}
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, u, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	token, err := p.Tokens.Acquire(attemptCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set(HeaderAuthorization, "Bearer "+string(token))
	req.Header.Set(HeaderContentType, "application/json")
	req.Header.Set(HeaderCorrelationRequestID, correlationID)
	if opts.UserAgent != "" {
		req.Header.Set(HeaderUserAgent, opts.UserAgent)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

func (p *Pipeline) timeout() time.Duration {
	if p.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return p.RequestTimeout
}

func (p *Pipeline) buildURL(path, apiVersion string, query map[string]string) (string, error) {
	full := p.Ctx.BaseURL() + path
	parsed, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parse ARM path %q: %w", path, err)
	}
	q := parsed.Query()
	q.Set("api-version", apiVersion)
	for k, v := range query {
		q.Set(k, v)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func decodeBody(body []byte) (map[string]any, error) {
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode ARM response: %w", err)
	}
	return out, nil
}

// formatQueryInt renders an integer as a decimal query-parameter value. It
// is unexported, so only code in this package can call it.
func formatQueryInt(v int) string { return strconv.Itoa(v) }

package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// InteractiveBrowserProvider completes an OAuth2 authorization-code flow
// the first time Acquire is called, then reuses the resulting TokenSource
// (which refreshes silently) for subsequent calls. The actual browser
// launch/redirect handling is supplied by Exchange, which callers wire up
// against their platform's preferred flow (device code, loopback redirect,
// …); this type only owns the once-and-cache-the-source bookkeeping.
type InteractiveBrowserProvider struct {
	Config *oauth2.Config
	// Exchange performs the interactive login and returns the resulting
	// token. Called at most once per process lifetime.
	Exchange func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewInteractiveBrowserProvider builds a Provider around an OAuth2 config
// and an interactive exchange function.
func NewInteractiveBrowserProvider(cfg *oauth2.Config, exchange func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)) *InteractiveBrowserProvider {
	return &InteractiveBrowserProvider{Config: cfg, Exchange: exchange}
}

// Acquire triggers the interactive flow on first use and transparently
// refreshes on subsequent calls.
func (p *InteractiveBrowserProvider) Acquire(ctx context.Context) (Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		if p.Config == nil || p.Exchange == nil {
			return "", fmt.Errorf("auth: interactive browser provider is not configured")
		}
		tok, err := p.Exchange(ctx, p.Config)
		if err != nil {
			return "", fmt.Errorf("auth: interactive browser login failed: %w", err)
		}
		p.source = p.Config.TokenSource(ctx, tok)
	}

	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("auth: refresh interactive browser token: %w", err)
	}
	return Token(tok.AccessToken), nil
}

package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// DefaultChainProvider adapts an ambient oauth2.TokenSource — typically one
// assembled from Azure's default-credential chain (managed identity,
// environment service principal, workload identity) — to the Provider
// contract. Construction of the concrete TokenSource is left to the caller
// so this package stays free of cloud-SDK specifics; the pattern mirrors
// google.DefaultTokenSource ambient-credential lookups. cmd/arm-mcp-server
// does not construct this provider: its default auth mode uses
// CLICredentialProvider.
type DefaultChainProvider struct {
	Source oauth2.TokenSource
}

// NewDefaultChainProvider wraps an existing oauth2.TokenSource.
func NewDefaultChainProvider(source oauth2.TokenSource) *DefaultChainProvider {
	return &DefaultChainProvider{Source: source}
}

// Acquire pulls the next token from the underlying TokenSource, which is
// expected to transparently refresh on expiry.
func (p *DefaultChainProvider) Acquire(_ context.Context) (Token, error) {
	if p.Source == nil {
		return "", fmt.Errorf("auth: default credential chain is not configured")
	}
	tok, err := p.Source.Token()
	if err != nil {
		return "", fmt.Errorf("auth: acquire ambient default credential: %w", err)
	}
	return Token(tok.AccessToken), nil
}

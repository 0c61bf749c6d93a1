package auth

import (
	"context"
	"fmt"
	"os"
)

// EnvTokenProvider reads a pre-acquired bearer token from an environment
// variable on every Acquire call, so an operator rotating the value out of
// band is picked up without a restart.
type EnvTokenProvider struct {
	EnvVar string
}

// NewEnvTokenProvider builds a Provider reading from ARM_MCP_AUTH_TOKEN when
// envVar is empty.
func NewEnvTokenProvider(envVar string) *EnvTokenProvider {
	if envVar == "" {
		envVar = "ARM_MCP_AUTH_TOKEN"
	}
	return &EnvTokenProvider{EnvVar: envVar}
}

// Acquire returns the current value of EnvVar, or an error if it is unset.
func (p *EnvTokenProvider) Acquire(_ context.Context) (Token, error) {
	v := os.Getenv(p.EnvVar)
	if v == "" {
		return "", fmt.Errorf("auth: environment variable %s is not set", p.EnvVar)
	}
	return Token(v), nil
}

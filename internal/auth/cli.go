package auth

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLICredentialProvider shells out to a locally installed CLI (e.g. `az
// account get-access-token`) to obtain a short-lived token, matching the
// "CLI-cached credentials" backend spec.md §6 names. The command is
// expected to print the raw token on stdout.
type CLICredentialProvider struct {
	Command []string
	Runner  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCLICredentialProvider builds a Provider around `az account
// get-access-token --resource https://management.azure.com --query
// accessToken -o tsv` when command is empty.
func NewCLICredentialProvider(command []string) *CLICredentialProvider {
	if len(command) == 0 {
		command = []string{
			"az", "account", "get-access-token",
			"--resource", "https://management.azure.com",
			"--query", "accessToken", "-o", "tsv",
		}
	}
	return &CLICredentialProvider{Command: command, Runner: runCommand}
}

// Acquire re-invokes the configured CLI command on every call so a
// refreshed cached credential is always used.
func (p *CLICredentialProvider) Acquire(ctx context.Context) (Token, error) {
	if len(p.Command) == 0 {
		return "", fmt.Errorf("auth: cli credential command is not configured")
	}
	runner := p.Runner
	if runner == nil {
		runner = runCommand
	}
	out, err := runner(ctx, p.Command[0], p.Command[1:]...)
	if err != nil {
		return "", fmt.Errorf("auth: cli credential command failed: %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("auth: cli credential command produced no token")
	}
	return Token(token), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

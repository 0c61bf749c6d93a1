// Command arm-mcp-server runs the ARM connector MCP bridge: it exposes
// Azure API Connections as MCP tools over a stdio JSON-RPC transport.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/azure-tools/arm-connector-mcp/internal/arm"
	"github.com/azure-tools/arm-connector-mcp/internal/auth"
	"github.com/azure-tools/arm-connector-mcp/internal/config"
	"github.com/azure-tools/arm-connector-mcp/internal/connectors"
	"github.com/azure-tools/arm-connector-mcp/internal/mcpserver"
	"github.com/azure-tools/arm-connector-mcp/internal/statictools"
	"github.com/azure-tools/arm-connector-mcp/internal/telemetry"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "arm-mcp-server",
	Short:         "ARM connector MCP bridge",
	Long:          "Exposes Azure API Connections as MCP tools, compiled dynamically from their Swagger documents.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", os.Getenv("ARM_MCP_CONFIG"), "path to a YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "arm-mcp-server:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, err := telemetry.NewStderrLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger := telemetry.NewZapLogger(zapLogger)
	tracer := telemetry.NewOtelTracer("arm-mcp-server")

	tokenProvider, err := buildAuthProvider(cfg)
	if err != nil {
		return fmt.Errorf("build auth provider: %w", err)
	}

	armCtx := arm.Context{
		SubscriptionID: cfg.SubscriptionID,
		ResourceGroup:  cfg.ResourceGroup,
		Location:       cfg.Location,
	}
	pipeline := arm.New(armCtx, &http.Client{}, tokenProvider, logger, tracer)
	pipeline.RequestTimeout = cfg.RequestTimeout
	pipeline.MaxRetries = cfg.MaxRetries
	if cfg.RateLimitRPS > 0 {
		burst := int(cfg.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		pipeline.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	registry := connectors.NewRegistry()
	mcpSrv := mcpserver.New("arm-mcp-server", version(), logger)
	coordinator := connectors.NewCoordinator(pipeline, registry, mcpSrv, logger)
	coordinator.Registrar = mcpRegistrar{srv: mcpSrv}
	coordinator.Tracer = tracer

	suite := &statictools.Suite{Pipeline: pipeline, Registry: registry, Coordinator: coordinator}
	if err := suite.RegisterAll(mcpSrv); err != nil {
		return fmt.Errorf("register static tools: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tally, err := coordinator.StartupScan(ctx)
	if err != nil {
		logger.Warn(ctx, "startup scan failed", "component", "main", "err", err)
	} else {
		logger.Info(ctx, "startup scan complete", "component", "main", "summary", tally.String())
	}

	transport := mcpserver.NewStdioTransport(os.Stdin, os.Stdout)
	return mcpSrv.Serve(ctx, transport)
}

// mcpRegistrar adapts *mcpserver.Server to connectors.Registrar so the
// lifecycle coordinator can expose every newly compiled operation through
// the live MCP registrar, not just its own internal registry (spec.md §4.F).
// This is the one place connectors.InvocationHandler's (any, error) shape
// crosses into mcpserver.ToolHandler's (CallToolResult, error) shape, kept
// here rather than in internal/connectors so that package stays independent
// of internal/mcpserver.
type mcpRegistrar struct {
	srv *mcpserver.Server
}

func (r mcpRegistrar) Register(name, description string, inputSchema map[string]any, handler connectors.InvocationHandler) error {
	return r.srv.Register(name, description, inputSchema, func(ctx context.Context, args map[string]any) (mcpserver.CallToolResult, error) {
		result, err := handler(ctx, args)
		if err != nil {
			return mcpserver.ErrorResult(err.Error()), nil
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			return mcpserver.ErrorResult(err.Error()), nil
		}
		return mcpserver.TextResult(string(encoded)), nil
	})
}

func buildAuthProvider(cfg config.Config) (auth.Provider, error) {
	switch cfg.Auth {
	case config.AuthModeEnvToken:
		return auth.NewEnvTokenProvider(""), nil
	case config.AuthModeCLI:
		return auth.NewCLICredentialProvider(nil), nil
	case config.AuthModeInteractive:
		return nil, fmt.Errorf("interactive auth requires a configured OAuth2 client; wire one up before selecting this mode")
	case config.AuthModeDefaultChain:
		// No ambient-credential SDK is wired into this build (spec.md's
		// dependency surface has no azidentity equivalent), so the default
		// chain falls back to the CLI-cached credential, same as AuthModeCLI.
		return auth.NewCLICredentialProvider(nil), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth)
	}
}

func version() string {
	if v := os.Getenv("ARM_MCP_VERSION"); v != "" {
		return v
	}
	return "dev"
}

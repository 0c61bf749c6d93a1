package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/azure-tools/arm-connector-mcp/internal/arm"
	"github.com/azure-tools/arm-connector-mcp/internal/openapi"
	"github.com/azure-tools/arm-connector-mcp/internal/telemetry"
)

func marshalDocumentNode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Tally reports the outcome of a scan/registration/refresh pass
// (spec.md §4.F).
type Tally struct {
	Registered int
	Skipped    int
	Errors     int
}

func (t Tally) String() string {
	return fmt.Sprintf("registered=%d skipped=%d errors=%d", t.Registered, t.Skipped, t.Errors)
}

func (t *Tally) add(other Tally) {
	t.Registered += other.Registered
	t.Skipped += other.Skipped
	t.Errors += other.Errors
}

// ToolNotifier is the subset of the external tool registrar contract the
// coordinator needs to announce newly compiled tools (spec.md §6).
type ToolNotifier interface {
	NotifyListChanged()
}

// InvocationHandler executes one compiled operation against ARM given the
// caller-supplied, already-validated params.
type InvocationHandler func(ctx context.Context, params map[string]any) (any, error)

// Registrar is the subset of the external tool registrar contract the
// coordinator needs to expose a newly compiled operation live, not just
// record it in the internal Registry (spec.md §4.F, §6).
type Registrar interface {
	Register(name, description string, inputSchema map[string]any, handler InvocationHandler) error
}

// Coordinator drives the three lifecycle entry points: startup scan,
// incremental registration, and refresh (spec.md §4.F). Registrar is
// optional; when set, every newly compiled operation is also registered
// with the live MCP registrar, not just recorded in Registry.
type Coordinator struct {
	Pipeline  *arm.Pipeline
	Registry  *Registry
	Notifier  ToolNotifier
	Registrar Registrar
	Tracer    telemetry.Tracer
	Logger    telemetry.Logger
}

// NewCoordinator wires a lifecycle coordinator over an existing pipeline,
// registry, and notifier. Set Registrar and Tracer on the returned value
// to enable live tool registration and span instrumentation.
func NewCoordinator(pipeline *arm.Pipeline, registry *Registry, notifier ToolNotifier, logger telemetry.Logger) *Coordinator {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Coordinator{
		Pipeline: pipeline,
		Registry: registry,
		Notifier: notifier,
		Tracer:   telemetry.NewNoopTracer(),
		Logger:   logger,
	}
}

// StartupScan lists every connection in the target resource group and
// compiles/registers each one's operations (spec.md §4.F).
func (c *Coordinator) StartupScan(ctx context.Context) (Tally, error) {
	total := Tally{}

	conns, err := c.listConnections(ctx)
	if err != nil {
		return total, err
	}

	for _, conn := range conns {
		t := c.registerAPI(ctx, conn)
		total.add(t)
	}
	return total, nil
}

// RegisterConnection compiles and registers just the API behind one newly
// created connection, emitting list_changed on net-positive registration
// (spec.md §4.F).
func (c *Coordinator) RegisterConnection(ctx context.Context, conn ConnectionInfo) Tally {
	if c.Registry.HasPrefix(conn.APIName) {
		return Tally{}
	}
	t := c.registerAPI(ctx, conn)
	if t.Registered > 0 && c.Notifier != nil {
		c.Notifier.NotifyListChanged()
	}
	return t
}

// Refresh clears the schema cache (not the registry) and reruns the
// startup scan; already-present APIs short-circuit on name collision
// (spec.md §4.F, Open Question (b)).
func (c *Coordinator) Refresh(ctx context.Context) (Tally, error) {
	c.Registry.CacheClear()
	return c.StartupScan(ctx)
}

func (c *Coordinator) listConnections(ctx context.Context) ([]ConnectionInfo, error) {
	path := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/connections",
		c.Pipeline.Ctx.SubscriptionID, c.Pipeline.Ctx.ResourceGroup)
	result, err := c.Pipeline.Do(ctx, http.MethodGet, path, arm.Options{})
	if err != nil {
		return nil, fmt.Errorf("connectors: list connections: %w", err)
	}
	return parseConnectionList(result), nil
}

func parseConnectionList(result map[string]any) []ConnectionInfo {
	values, _ := result["value"].([]any)
	conns := make([]ConnectionInfo, 0, len(values))
	for _, raw := range values {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		conns = append(conns, connectionInfoFromResource(item))
	}
	return conns
}

func connectionInfoFromResource(item map[string]any) ConnectionInfo {
	name, _ := item["name"].(string)
	id, _ := item["id"].(string)
	props, _ := item["properties"].(map[string]any)

	var apiName, displayName, status string
	if props != nil {
		if api, ok := props["api"].(map[string]any); ok {
			apiName, _ = api["name"].(string)
		}
		displayName, _ = props["displayName"].(string)
		status, _ = props["statuses"].(string)
		if status == "" {
			status, _ = props["status"].(string)
		}
	}
	if status == "" {
		status = string(StatusUnknown)
	}
	return ConnectionInfo{
		Name:        name,
		APIName:     apiName,
		DisplayName: displayName,
		Status:      ConnectionStatus(status),
		APIID:       id,
	}
}

// registerAPI fetches (or reuses the cached) managed-API document for
// conn.APIName, parses/filters/schema-generates, and registers every
// surviving operation. Per-API failures are tallied as errors and never
// abort the caller's loop (spec.md §4.F.4).
func (c *Coordinator) registerAPI(ctx context.Context, conn ConnectionInfo) Tally {
	ctx, span := c.tracer().Start(ctx, "lifecycle.scan", trace.WithAttributes(
		attribute.String("connection_name", conn.Name),
		attribute.String("api_name", conn.APIName),
	))
	defer span.End()

	t := Tally{}

	doc, err := c.fetchOrCacheDocument(ctx, conn.APIName)
	if err != nil {
		c.Logger.Warn(ctx, "failed to fetch managed API document",
			"component", "lifecycle", "api_name", conn.APIName, "err", err)
		t.Errors++
		return t
	}
	if doc == nil {
		c.Logger.Info(ctx, "managed API document has no embedded swagger, skipping",
			"component", "lifecycle", "api_name", conn.APIName)
		return t
	}

	ops, err := openapi.Parse(doc, conn.APIName)
	if err != nil {
		c.Logger.Warn(ctx, "failed to parse managed API document",
			"component", "lifecycle", "api_name", conn.APIName, "err", err)
		t.Errors++
		return t
	}

	survivors := FilterAndDeduplicate(ops)
	for _, op := range survivors {
		toolName := BuildToolName(conn.APIName, op.OperationID)
		keys, specs := GenerateSchema(op)
		inputSchema := make(map[string]ParamSpec, len(keys))
		for _, k := range keys {
			inputSchema[k] = specs[k]
		}

		binding := ToolBinding{Connection: conn, Operation: op, InputSchema: inputSchema}
		if err := c.Registry.Put(toolName, binding); err != nil {
			t.Skipped++
			continue
		}
		t.Registered++

		if c.Registrar != nil {
			boundOp := op
			boundConn := conn
			handler := func(handlerCtx context.Context, params map[string]any) (any, error) {
				return c.InvokeOperation(handlerCtx, boundConn, boundOp, params)
			}
			schemaDoc := BuildJSONSchemaDoc(inputSchema)
			description := BuildDescription(conn, op)
			if err := c.Registrar.Register(toolName, description, schemaDoc, handler); err != nil {
				c.Logger.Warn(ctx, "failed to register live tool",
					"component", "lifecycle", "tool", toolName, "err", err)
			}
		}
	}
	return t
}

// InvokeOperation proxies a compiled operation's invocation through ARM's
// dynamicInvoke endpoint, translating the caller's params into the wire
// envelope and back into a plain result value (spec.md §4.G, §8 S4).
func (c *Coordinator) InvokeOperation(ctx context.Context, conn ConnectionInfo, op ParsedOperation, params map[string]any) (any, error) {
	ctx, span := c.tracer().Start(ctx, "dynamictools.invoke", trace.WithAttributes(
		attribute.String("connection_name", conn.Name),
		attribute.String("operation_id", op.OperationID),
	))
	defer span.End()

	envelope, err := BuildInvocationEnvelope(op, params)
	if err != nil {
		return nil, errors.New(FormatInvocationError(conn.APIName, op.OperationID, err))
	}

	path := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/connections/%s/dynamicInvoke",
		c.Pipeline.Ctx.SubscriptionID, c.Pipeline.Ctx.ResourceGroup, conn.Name)
	result, err := c.Pipeline.Do(ctx, http.MethodPost, path, arm.Options{Body: envelope})
	if err != nil {
		return nil, errors.New(FormatInvocationError(conn.APIName, op.OperationID, err))
	}
	return ExtractResponseBody(result), nil
}

func (c *Coordinator) tracer() telemetry.Tracer {
	if c.Tracer != nil {
		return c.Tracer
	}
	return telemetry.NewNoopTracer()
}

func (c *Coordinator) fetchOrCacheDocument(ctx context.Context, apiName string) (*Document, error) {
	if doc, ok := c.Registry.CacheGet(apiName); ok {
		return doc, nil
	}

	path := fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Web/locations/%s/managedApis/%s",
		c.Pipeline.Ctx.SubscriptionID, c.Pipeline.Ctx.Location, apiName)
	result, err := c.Pipeline.Do(ctx, http.MethodGet, path, arm.Options{Query: map[string]string{"export": "true"}})
	if err != nil {
		return nil, err
	}

	props, _ := result["properties"].(map[string]any)
	if props == nil {
		return nil, nil
	}
	swagger, ok := props["swagger"]
	if !ok {
		return nil, nil
	}

	raw, err := marshalDocumentNode(swagger)
	if err != nil {
		return nil, fmt.Errorf("re-encode embedded swagger for %s: %w", apiName, err)
	}
	doc, err := openapi.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	c.Registry.CachePut(apiName, doc)
	return doc, nil
}

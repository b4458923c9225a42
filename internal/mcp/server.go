// Package mcp exposes a reduction run over the Model Context Protocol, so
// an editor-integrated agent can drive minimize as a tool rather than
// shelling out to the CLI. Adapted from the teacher's pkg/mcp/server.go
// (mcpsdk.Server wrapping, per-tool registration with a record of the
// registered tool names), with the analysis-specific tool set replaced by
// run_passes/status.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/shrinklab/minimize/internal/observability"
)

const (
	serverName    = "minimize"
	serverVersion = "1.0.0"
	toolCount     = 2
)

// ServerDeps holds injectable dependencies for the MCP server. Zero-value
// fields use production defaults.
type ServerDeps struct {
	Logger  *slog.Logger
	Metrics *observability.PassMetrics
	Tracer  trace.Tracer
}

// Server wraps the MCP SDK server with this module's tool registrations.
type Server struct {
	inner *mcpsdk.Server

	mu    sync.RWMutex
	tools []string

	metrics *observability.PassMetrics
	tracer  trace.Tracer
}

// NewServer creates an MCP server with run_passes and status registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: serverVersion}, opts)

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the server on stdio transport, blocking until ctx is
// canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	if err := s.inner.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	s.registerRunPassesTool()
	s.registerStatusTool()
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

func (s *Server) registerRunPassesTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRunPasses,
		Description: runPassesToolDescription,
	}, handleRunPasses)

	s.trackTool(ToolNameRunPasses)
}

func (s *Server) registerStatusTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameStatus,
		Description: statusToolDescription,
	}, handleStatus)

	s.trackTool(ToolNameStatus)
}

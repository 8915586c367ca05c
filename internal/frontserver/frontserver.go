// Package frontserver binds the tool aggregator to an MCP server exposed
// over stdio, in the same style the pool's own integration tests use to
// stand up a throwaway mark3labs/mcp-go server: build one mcp.Tool per
// aggregated tool, register a single dispatching handler, then serve.
package frontserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alex4o/mcpd/internal/aggregator"
	"github.com/alex4o/mcpd/internal/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "mcpd"
	serverVersion = "0.1.0"
)

// Server exposes an Aggregator's routed tool inventory as a front-facing
// MCP server over stdio.
type Server struct {
	agg        *aggregator.Aggregator
	pipelines  map[string]*middleware.Pipeline
	logger     *slog.Logger
}

// New builds a Server. pipelines maps service name to the middleware chain
// applied to that service's responses; a service with no entry gets its
// results passed through unchanged.
func New(agg *aggregator.Aggregator, pipelines map[string]*middleware.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{agg: agg, pipelines: pipelines, logger: logger.With("component", "frontserver")}
}

// Serve builds the mcp-go server from the aggregator's current tool
// inventory and blocks serving stdio requests until stdin closes or ctx is
// canceled.
func (s *Server) Serve(ctx context.Context) error {
	tools, err := s.agg.ListAllTools(ctx)
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}

	mcpServer := server.NewMCPServer(serverName, serverVersion, server.WithRecovery())

	for _, tool := range tools {
		mcpServer.AddTool(toWireTool(tool), s.handlerFor(tool))
	}

	s.logger.Info("front server ready", "tools", len(tools), "services", s.agg.ServiceNames())

	done := make(chan error, 1)
	go func() { done <- server.ServeStdio(mcpServer) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func toWireTool(tool aggregator.NamespacedTool) mcp.Tool {
	schema := mcp.ToolInputSchema{Type: "object"}
	if raw, err := json.Marshal(tool.InputSchema); err == nil {
		_ = json.Unmarshal(raw, &schema)
	}
	return mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schema,
	}
}

// handlerFor closes over the namespaced tool's external name so the
// returned handler re-resolves the owning backend on every call, routing
// through the aggregator and then that service's middleware chain.
func (s *Server) handlerFor(tool aggregator.NamespacedTool) server.ToolHandlerFunc {
	name := tool.Name
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, _, err := s.agg.RouteToolCall(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if pipeline, ok := s.pipelines[tool.Service]; ok {
			result = pipeline.Apply(tool.OriginalName, result)
		}

		return toWireResult(result), nil
	}
}

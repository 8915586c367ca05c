package backend

import (
	"context"
	"fmt"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/mcptypes"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

type sseClient struct {
	c *mcpclient.Client
}

// ConnectSSE connects to an already-running backend over Server-Sent
// Events. An SSE client never owns a process, so PID always reports 0.
func ConnectSSE(ctx context.Context, cfg config.ServiceConfig) (Client, error) {
	c, err := mcpclient.NewSSEMCPClient(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("creating SSE client for %q: %w", cfg.URL, err)
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("starting SSE client for %q: %w", cfg.URL, err)
	}

	if _, err := c.Initialize(ctx, initializeRequest()); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initializing SSE backend %q: %w", cfg.URL, err)
	}

	return &sseClient{c: c}, nil
}

func (s *sseClient) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	result, err := s.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return convertTools(result.Tools), nil
}

func (s *sseClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error) {
	result, err := s.c.CallTool(ctx, callToolRequest(name, args))
	if err != nil {
		return nil, err
	}
	return convertResult(result), nil
}

func (s *sseClient) Ping(ctx context.Context) error {
	return s.c.Ping(ctx)
}

func (s *sseClient) Disconnect() error {
	return s.c.Close()
}

func (s *sseClient) PID() int {
	return 0
}

// Connect dispatches to ConnectStdio or ConnectSSE by the service's
// effective transport.
func Connect(ctx context.Context, cfg config.ServiceConfig) (Client, error) {
	if cfg.EffectiveTransport() == config.TransportStdio {
		return ConnectStdio(ctx, cfg)
	}
	return ConnectSSE(ctx, cfg)
}

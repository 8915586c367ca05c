package backend

import (
	"context"
	"fmt"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/mcptypes"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// pidGetter is satisfied by mcp-go's stdio transport, which owns the
// spawned child and can report its PID. We only depend on the method we
// need, not the concrete transport type.
type pidGetter interface {
	Pid() int
}

type stdioClient struct {
	c   *mcpclient.Client
	pid int
}

// ConnectStdio spawns cfg's command as a child process, speaks MCP over
// its stdio pipes, and owns that child for the lifetime of the returned
// Client: Disconnect terminates it.
func ConnectStdio(ctx context.Context, cfg config.ServiceConfig) (Client, error) {
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	c, err := mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("creating stdio client for %q: %w", cfg.Command, err)
	}

	if _, err := c.Initialize(ctx, initializeRequest()); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initializing stdio backend %q: %w", cfg.Command, err)
	}

	pid := 0
	if t, ok := c.GetTransport().(pidGetter); ok {
		pid = t.Pid()
	}

	return &stdioClient{c: c, pid: pid}, nil
}

func (s *stdioClient) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	result, err := s.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return convertTools(result.Tools), nil
}

func (s *stdioClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error) {
	result, err := s.c.CallTool(ctx, callToolRequest(name, args))
	if err != nil {
		return nil, err
	}
	return convertResult(result), nil
}

func (s *stdioClient) Ping(ctx context.Context) error {
	return s.c.Ping(ctx)
}

func (s *stdioClient) Disconnect() error {
	return s.c.Close()
}

func (s *stdioClient) PID() int {
	return s.pid
}

// ListPrompts, GetPrompt, ListResources, ListResourceTemplates, and
// ReadResource pass straight through to the underlying mcp-go client using
// its own request/result types rather than mcptypes, matching
// addClientPromptsToMCPServer/addClientResourcesToMCPServer's direct
// ListX-then-AddX wiring: unlike tools, prompts and resources are forwarded
// only by the Stdio↔SSE Proxy, which already speaks mcp-go server types
// directly, so there's no protocol-agnostic conversion to do.

func (s *stdioClient) ListPrompts(ctx context.Context, req mcp.ListPromptsRequest) (*mcp.ListPromptsResult, error) {
	return s.c.ListPrompts(ctx, req)
}

func (s *stdioClient) GetPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return s.c.GetPrompt(ctx, req)
}

func (s *stdioClient) ListResources(ctx context.Context, req mcp.ListResourcesRequest) (*mcp.ListResourcesResult, error) {
	return s.c.ListResources(ctx, req)
}

func (s *stdioClient) ListResourceTemplates(ctx context.Context, req mcp.ListResourceTemplatesRequest) (*mcp.ListResourceTemplatesResult, error) {
	return s.c.ListResourceTemplates(ctx, req)
}

func (s *stdioClient) ReadResource(ctx context.Context, req mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return s.c.ReadResource(ctx, req)
}

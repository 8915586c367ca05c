package proxy

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var errBackendNotConnected = errors.New("backend not connected")

// promptCapable and resourceCapable are satisfied by a backend.Client whose
// concrete type also forwards mcp-go's prompt/resource methods (stdioClient
// does; sseClient and the IdleCloser decorator currently don't forward
// them, so a type assertion against these interfaces doubles as the
// "backend reports this capability" check addClientPromptsToMCPServer and
// addClientResourcesToMCPServer make explicit with their own ListX calls).
type promptCapable interface {
	ListPrompts(ctx context.Context, req mcp.ListPromptsRequest) (*mcp.ListPromptsResult, error)
	GetPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error)
}

type resourceCapable interface {
	ListResources(ctx context.Context, req mcp.ListResourcesRequest) (*mcp.ListResourcesResult, error)
	ListResourceTemplates(ctx context.Context, req mcp.ListResourceTemplatesRequest) (*mcp.ListResourceTemplatesResult, error)
	ReadResource(ctx context.Context, req mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)
}

// registerPrompts forwards every prompt the backend lists, paging through
// NextCursor. A backend that doesn't implement prompts (or returns no
// prompts) leaves the MCP server tools-only for this capability. The
// registered handler re-resolves p.currentClient() on every call, the same
// way p.toolHandler does, so a later reconnect doesn't strand prompt
// lookups on a disconnected client.
func (p *Proxy) registerPrompts(ctx context.Context, initial promptCapable, mcpServer *server.MCPServer) {
	req := mcp.ListPromptsRequest{}
	for {
		result, err := initial.ListPrompts(ctx, req)
		if err != nil || result == nil {
			return
		}
		for _, prompt := range result.Prompts {
			mcpServer.AddPrompt(prompt, p.promptHandler())
		}
		if result.NextCursor == "" {
			return
		}
		req.PaginatedRequest.Params.Cursor = result.NextCursor
	}
}

// registerResources forwards every resource and resource template the
// backend lists, the same way.
func (p *Proxy) registerResources(ctx context.Context, initial resourceCapable, mcpServer *server.MCPServer) {
	resourcesReq := mcp.ListResourcesRequest{}
	for {
		result, err := initial.ListResources(ctx, resourcesReq)
		if err != nil || result == nil {
			break
		}
		for _, resource := range result.Resources {
			mcpServer.AddResource(resource, p.resourceReadHandler())
		}
		if result.NextCursor == "" {
			break
		}
		resourcesReq.PaginatedRequest.Params.Cursor = result.NextCursor
	}

	templatesReq := mcp.ListResourceTemplatesRequest{}
	for {
		result, err := initial.ListResourceTemplates(ctx, templatesReq)
		if err != nil || result == nil {
			return
		}
		for _, tmpl := range result.ResourceTemplates {
			mcpServer.AddResourceTemplate(tmpl, p.resourceReadHandler())
		}
		if result.NextCursor == "" {
			return
		}
		templatesReq.PaginatedRequest.Params.Cursor = result.NextCursor
	}
}

func (p *Proxy) promptHandler() server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		client, ok := p.currentClient().(promptCapable)
		if !ok {
			return nil, errBackendNotConnected
		}
		return client.GetPrompt(ctx, request)
	}
}

func (p *Proxy) resourceReadHandler() func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		client, ok := p.currentClient().(resourceCapable)
		if !ok {
			return nil, errBackendNotConnected
		}
		read, err := client.ReadResource(ctx, req)
		if err != nil {
			return nil, err
		}
		return read.Contents, nil
	}
}

package proxy

import (
	"context"
	"encoding/json"

	"github.com/alex4o/mcpd/internal/mcptypes"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolHandler returns an mcp-go tool handler that always calls through the
// proxy's current backend client, so a reconnect mid-session does not
// require re-registering tools with the SSE server.
func (p *Proxy) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client := p.currentClient()
		if client == nil {
			return mcp.NewToolResultError("backend not connected"), nil
		}
		result, err := client.CallTool(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toWireResult(result), nil
	}
}

func toWireTool(tool mcptypes.Tool) mcp.Tool {
	schema := mcp.ToolInputSchema{Type: "object"}
	if raw, err := json.Marshal(tool.InputSchema); err == nil {
		_ = json.Unmarshal(raw, &schema)
	}
	return mcp.Tool{Name: tool.Name, Description: tool.Description, InputSchema: schema}
}

func toWireResult(result *mcptypes.ToolResult) *mcp.CallToolResult {
	if result == nil {
		return &mcp.CallToolResult{}
	}
	content := make([]mcp.Content, 0, len(result.Content))
	for _, block := range result.Content {
		content = append(content, toWireContent(block))
	}
	return &mcp.CallToolResult{Content: content, IsError: result.IsError}
}

func toWireContent(block mcptypes.ContentBlock) mcp.Content {
	switch block.Type {
	case "image":
		return mcp.ImageContent{Type: "image", Data: block.Data, MIMEType: block.MIMEType}
	case "audio":
		return mcp.AudioContent{Type: "audio", Data: block.Data, MIMEType: block.MIMEType}
	case "resource":
		return mcp.EmbeddedResource{Type: "resource", Resource: toWireResource(block.Resource)}
	default:
		return mcp.TextContent{Type: "text", Text: block.Text}
	}
}

func toWireResource(r *mcptypes.EmbeddedResource) mcp.ResourceContents {
	if r == nil {
		return mcp.TextResourceContents{}
	}
	if r.Blob != "" {
		return mcp.BlobResourceContents{URI: r.URI, MIMEType: r.MIMEType, Blob: r.Blob}
	}
	return mcp.TextResourceContents{URI: r.URI, MIMEType: r.MIMEType, Text: r.Text}
}

package frontserver

import (
	"github.com/alex4o/mcpd/internal/mcptypes"
	"github.com/mark3labs/mcp-go/mcp"
)

// toWireResult converts our transport-agnostic ToolResult back into the
// mcp-go wire type after it has passed through the aggregator and the
// service's middleware chain.
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

// Package backend implements the Backend Client Adapter: a uniform
// interface over the two transports a configured service can speak
// (stdio child process, SSE connection), built on
// github.com/mark3labs/mcp-go's client package — the assumed-external MCP
// protocol/framing library spec.md's scope carve-out names.
package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alex4o/mcpd/internal/mcptypes"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	protocolVersion = "2025-11-25"
	clientName      = "mcpd"
	clientVersion   = "0.1.0"
)

// Client is the adapter's contract: listTools/callTool uniformly across
// transports, disconnect to release the transport, and a PID accessor that
// is non-zero only for a client that owns a stdio child process.
type Client interface {
	ListTools(ctx context.Context) ([]mcptypes.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error)
	Ping(ctx context.Context) error
	Disconnect() error
	PID() int
}

func initializeRequest() mcp.InitializeRequest {
	return mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: protocolVersion,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}
}

func convertTools(tools []mcp.Tool) []mcptypes.Tool {
	out := make([]mcptypes.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, convertTool(t))
	}
	return out
}

func convertTool(t mcp.Tool) mcptypes.Tool {
	schema := map[string]any{}
	if raw, err := json.Marshal(t.InputSchema); err == nil {
		_ = json.Unmarshal(raw, &schema)
	}
	return mcptypes.Tool{Name: t.Name, Description: t.Description, InputSchema: schema}
}

// convertResult normalizes an mcp-go CallToolResult into our ToolResult,
// including the legacy fallback: a server that answers with a bare
// "toolResult" field instead of "content" gets that value synthesized into
// a single text block (JSON-encoded unless it is already a string).
func convertResult(result *mcp.CallToolResult) *mcptypes.ToolResult {
	if result == nil {
		return &mcptypes.ToolResult{}
	}

	blocks := convertContent(result.Content)
	if len(blocks) > 0 {
		return &mcptypes.ToolResult{Content: blocks, IsError: result.IsError}
	}

	if legacy, ok := extractLegacyToolResult(result); ok {
		text := legacy
		return &mcptypes.ToolResult{Content: []mcptypes.ContentBlock{{Type: "text", Text: text}}, IsError: result.IsError}
	}

	return &mcptypes.ToolResult{IsError: result.IsError}
}

// extractLegacyToolResult looks for a "toolResult" field on the wire
// response that a pre-standard server might send instead of "content". It
// round-trips through JSON rather than assuming a specific mcp-go struct
// field, since the library's CallToolResult does not model this fallback
// shape directly.
func extractLegacyToolResult(result *mcp.CallToolResult) (string, bool) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", false
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", false
	}
	return legacyToolResultFromMap(generic)
}

// legacyToolResultFromMap is split out from extractLegacyToolResult so the
// extraction rule itself (string passed through, anything else
// JSON-encoded) can be tested without depending on the exact wire shape
// mcp-go's CallToolResult marshals to.
func legacyToolResultFromMap(generic map[string]any) (string, bool) {
	value, ok := generic["toolResult"]
	if !ok {
		return "", false
	}
	if s, ok := value.(string); ok {
		return s, true
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(encoded), true
}

func convertContent(blocks []mcp.Content) []mcptypes.ContentBlock {
	out := make([]mcptypes.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case mcp.TextContent:
			out = append(out, mcptypes.ContentBlock{Type: "text", Text: v.Text})
		case mcp.ImageContent:
			out = append(out, mcptypes.ContentBlock{Type: "image", Data: v.Data, MIMEType: v.MIMEType})
		case mcp.AudioContent:
			out = append(out, mcptypes.ContentBlock{Type: "audio", Data: v.Data, MIMEType: v.MIMEType})
		case mcp.EmbeddedResource:
			out = append(out, mcptypes.ContentBlock{Type: "resource", Resource: convertResource(v)})
		default:
			out = append(out, mcptypes.ContentBlock{Type: fmt.Sprintf("%T", b)})
		}
	}
	return out
}

func convertResource(v mcp.EmbeddedResource) *mcptypes.EmbeddedResource {
	switch r := v.Resource.(type) {
	case mcp.TextResourceContents:
		return &mcptypes.EmbeddedResource{URI: r.URI, MIMEType: r.MIMEType, Text: r.Text}
	case mcp.BlobResourceContents:
		return &mcptypes.EmbeddedResource{URI: r.URI, MIMEType: r.MIMEType, Blob: r.Blob}
	default:
		return nil
	}
}

func callToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

package frontserver

import (
	"testing"

	"github.com/alex4o/mcpd/internal/aggregator"
	"github.com/alex4o/mcpd/internal/mcptypes"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestToWireToolCarriesSchema(t *testing.T) {
	tool := aggregator.NamespacedTool{
		Name:        "fs_read",
		Description: "read a file",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{"path": map[string]any{"type": "string"}}},
	}

	wire := toWireTool(tool)
	if wire.Name != "fs_read" || wire.Description != "read a file" {
		t.Fatalf("toWireTool() = %+v", wire)
	}
	if wire.InputSchema.Type != "object" {
		t.Fatalf("InputSchema.Type = %q, want object", wire.InputSchema.Type)
	}
}

func TestToWireResultConvertsTextContent(t *testing.T) {
	result := mcptypes.TextResult("hello")
	wire := toWireResult(result)
	if len(wire.Content) != 1 {
		t.Fatalf("len(wire.Content) = %d, want 1", len(wire.Content))
	}
	if wire.IsError {
		t.Fatalf("IsError = true, want false")
	}
}

func TestToWireResultConvertsErrorResult(t *testing.T) {
	result := mcptypes.ErrorResult("boom")
	wire := toWireResult(result)
	if !wire.IsError {
		t.Fatalf("IsError = false, want true")
	}
}

func TestToWireResultConvertsImageBlock(t *testing.T) {
	result := &mcptypes.ToolResult{Content: []mcptypes.ContentBlock{
		{Type: "image", Data: "abc", MIMEType: "image/png"},
	}}
	wire := toWireResult(result)
	if len(wire.Content) != 1 {
		t.Fatalf("len(wire.Content) = %d, want 1", len(wire.Content))
	}
}

func TestToWireResultNilReturnsEmpty(t *testing.T) {
	wire := toWireResult(nil)
	if len(wire.Content) != 0 || wire.IsError {
		t.Fatalf("toWireResult(nil) = %+v, want empty", wire)
	}
}

func TestToWireResourceFallsBackToTextWhenBlobEmpty(t *testing.T) {
	resource := toWireResource(&mcptypes.EmbeddedResource{URI: "file:///a", MIMEType: "text/plain", Text: "body"})
	text, ok := resource.(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("toWireResource() type = %T, want mcp.TextResourceContents", resource)
	}
	if text.Text != "body" {
		t.Fatalf("Text = %q, want body", text.Text)
	}
}

func TestToWireResourceUsesBlobWhenPresent(t *testing.T) {
	resource := toWireResource(&mcptypes.EmbeddedResource{URI: "file:///a", MIMEType: "application/octet-stream", Blob: "YWJj"})
	blob, ok := resource.(mcp.BlobResourceContents)
	if !ok {
		t.Fatalf("toWireResource() type = %T, want mcp.BlobResourceContents", resource)
	}
	if blob.Blob != "YWJj" {
		t.Fatalf("Blob = %q, want YWJj", blob.Blob)
	}
}

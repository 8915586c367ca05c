package backend

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestConvertToolCarriesSchemaAsMap(t *testing.T) {
	tool := mcp.Tool{
		Name:        "search",
		Description: "search things",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{"q": map[string]any{"type": "string"}}},
	}

	out := convertTool(tool)
	if out.Name != "search" || out.Description != "search things" {
		t.Fatalf("convertTool() = %+v", out)
	}
	if out.InputSchema["type"] != "object" {
		t.Fatalf("InputSchema = %+v, want type=object", out.InputSchema)
	}
}

func TestConvertResultUsesContentWhenPresent(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "hello"}},
	}

	out := convertResult(result)
	if len(out.Content) != 1 || out.Content[0].Text != "hello" {
		t.Fatalf("convertResult() = %+v", out)
	}
}

func TestLegacyToolResultFromMapExtractsStringAsIs(t *testing.T) {
	text, ok := legacyToolResultFromMap(map[string]any{"toolResult": "legacy text"})
	if !ok || text != "legacy text" {
		t.Fatalf("legacyToolResultFromMap() = (%q, %v), want (\"legacy text\", true)", text, ok)
	}
}

func TestLegacyToolResultFromMapEncodesNonStringValues(t *testing.T) {
	text, ok := legacyToolResultFromMap(map[string]any{"toolResult": map[string]any{"count": float64(3)}})
	if !ok {
		t.Fatalf("legacyToolResultFromMap() ok = false, want true")
	}
	if text != `{"count":3}` {
		t.Fatalf("legacyToolResultFromMap() = %q, want {\"count\":3}", text)
	}
}

func TestLegacyToolResultFromMapMissingKeyFails(t *testing.T) {
	_, ok := legacyToolResultFromMap(map[string]any{"other": "value"})
	if ok {
		t.Fatalf("legacyToolResultFromMap() ok = true, want false for missing key")
	}
}

func TestConvertContentHandlesEachBlockType(t *testing.T) {
	blocks := []mcp.Content{
		mcp.TextContent{Type: "text", Text: "plain"},
		mcp.ImageContent{Type: "image", Data: "abc", MIMEType: "image/png"},
		mcp.AudioContent{Type: "audio", Data: "def", MIMEType: "audio/wav"},
		mcp.EmbeddedResource{Type: "resource", Resource: mcp.TextResourceContents{URI: "file:///a", MIMEType: "text/plain", Text: "body"}},
	}

	out := convertContent(blocks)
	if len(out) != 4 {
		t.Fatalf("convertContent() len = %d, want 4", len(out))
	}
	if out[0].Type != "text" || out[0].Text != "plain" {
		t.Fatalf("text block = %+v", out[0])
	}
	if out[1].Type != "image" || out[1].Data != "abc" || out[1].MIMEType != "image/png" {
		t.Fatalf("image block = %+v", out[1])
	}
	if out[2].Type != "audio" || out[2].Data != "def" {
		t.Fatalf("audio block = %+v", out[2])
	}
	if out[3].Type != "resource" || out[3].Resource == nil || out[3].Resource.Text != "body" {
		t.Fatalf("resource block = %+v", out[3])
	}
}

func TestConvertResultCarriesIsError(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "boom"}},
		IsError: true,
	}

	out := convertResult(result)
	if !out.IsError {
		t.Fatalf("convertResult().IsError = false, want true")
	}
}

func TestConvertResultNilReturnsEmptyResult(t *testing.T) {
	out := convertResult(nil)
	if len(out.Content) != 0 || out.IsError {
		t.Fatalf("convertResult(nil) = %+v, want empty", out)
	}
}

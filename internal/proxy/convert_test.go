package proxy

import (
	"context"
	"testing"

	"github.com/alex4o/mcpd/internal/mcptypes"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestToWireToolCarriesSchema(t *testing.T) {
	tool := mcptypes.Tool{Name: "read", Description: "reads", InputSchema: map[string]any{"type": "object"}}
	wire := toWireTool(tool)
	if wire.Name != "read" || wire.InputSchema.Type != "object" {
		t.Fatalf("toWireTool() = %+v", wire)
	}
}

func TestToWireResultConvertsErrorFlag(t *testing.T) {
	result := mcptypes.ErrorResult("nope")
	wire := toWireResult(result)
	if !wire.IsError {
		t.Fatalf("IsError = false, want true")
	}
	if len(wire.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(wire.Content))
	}
}

func TestToolHandlerReturnsErrorResultWhenClientMissing(t *testing.T) {
	p := &Proxy{}
	handler := p.toolHandler("anything")

	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "anything"},
	})
	if err != nil {
		t.Fatalf("handler() error = %v, want nil", err)
	}
	if !result.IsError {
		t.Fatalf("result.IsError = false, want true when no backend connected")
	}
}

func TestToolHandlerRoutesToCurrentClient(t *testing.T) {
	p := &Proxy{client: &fakeClient{}}
	handler := p.toolHandler("echo")

	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "echo"},
	})
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result.IsError = true, want false")
	}
}

package aggregator

import (
	"context"
	"testing"

	"github.com/alex4o/mcpd/internal/mcptypes"
)

type fakeBackend struct {
	tools   []mcptypes.Tool
	calls   []string
	result  *mcptypes.ToolResult
	callErr error
}

func (f *fakeBackend) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	return f.tools, nil
}

func (f *fakeBackend) CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error) {
	f.calls = append(f.calls, name)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.result, nil
}

func TestSingleBackendNamesAreUnchanged(t *testing.T) {
	a := New()
	serena := &fakeBackend{tools: []mcptypes.Tool{{Name: "find_symbol"}, {Name: "search"}}}
	a.AddBackend("serena", serena, nil)

	tools, err := a.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() error = %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "find_symbol" || tools[1].Name != "search" {
		t.Fatalf("tools = %+v, want unnamespaced find_symbol/search", tools)
	}

	serena.result = mcptypes.TextResult("ok")
	_, service, err := a.RouteToolCall(context.Background(), "find_symbol", map[string]any{"query": "x"})
	if err != nil {
		t.Fatalf("RouteToolCall() error = %v", err)
	}
	if service != "serena" {
		t.Fatalf("service = %q, want serena", service)
	}
	if len(serena.calls) != 1 || serena.calls[0] != "find_symbol" {
		t.Fatalf("calls = %v, want [find_symbol]", serena.calls)
	}
}

func TestMultiBackendNamespacesWithServicePrefix(t *testing.T) {
	a := New()
	a.AddBackend("github", &fakeBackend{tools: []mcptypes.Tool{{Name: "search"}}}, nil)
	a.AddBackend("files", &fakeBackend{tools: []mcptypes.Tool{{Name: "read"}}}, nil)

	tools, err := a.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() error = %v", err)
	}

	want := map[string]bool{"github_search": false, "files_read": false}
	for _, tool := range tools {
		if _, ok := want[tool.Name]; !ok {
			t.Fatalf("unexpected tool name %q", tool.Name)
		}
		want[tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected tool name %q not present", name)
		}
	}
}

func TestLongestPrefixRoutingDisambiguatesOverlappingNames(t *testing.T) {
	a := New()
	a.AddBackend("a", &fakeBackend{}, nil)
	a.AddBackend("a_b", &fakeBackend{}, nil)

	service, tool, err := a.ParseName("a_b_tool")
	if err != nil {
		t.Fatalf("ParseName() error = %v", err)
	}
	if service != "a_b" || tool != "tool" {
		t.Fatalf("ParseName(a_b_tool) = (%q, %q), want (a_b, tool)", service, tool)
	}

	service, tool, err = a.ParseName("a_x")
	if err != nil {
		t.Fatalf("ParseName() error = %v", err)
	}
	if service != "a" || tool != "x" {
		t.Fatalf("ParseName(a_x) = (%q, %q), want (a, x)", service, tool)
	}
}

func TestParseNameFailsWithNoMatchingPrefix(t *testing.T) {
	a := New()
	a.AddBackend("github", &fakeBackend{}, nil)
	a.AddBackend("files", &fakeBackend{}, nil)

	if _, _, err := a.ParseName("unknown_tool"); err == nil {
		t.Fatal("ParseName() error = nil, want ErrInvalidName")
	}
}

func TestRouteToolCallUnknownServiceFails(t *testing.T) {
	a := New()
	a.AddBackend("github", &fakeBackend{}, nil)
	a.AddBackend("files", &fakeBackend{}, nil)

	if _, _, err := a.RouteToolCall(context.Background(), "missing_tool", nil); err == nil {
		t.Fatal("RouteToolCall() error = nil, want error")
	}
}

func TestExcludeToolsHidesToolFromInventory(t *testing.T) {
	a := New()
	a.AddBackend("github", &fakeBackend{tools: []mcptypes.Tool{{Name: "search"}, {Name: "delete-repo"}}}, []string{"delete-repo"})

	tools, err := a.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() error = %v", err)
	}
	if len(tools) != 1 || tools[0].OriginalName != "search" {
		t.Fatalf("tools = %+v, want only search", tools)
	}
}

func TestReAddBackendWithoutExcludeClearsPriorExclusion(t *testing.T) {
	a := New()
	backend := &fakeBackend{tools: []mcptypes.Tool{{Name: "search"}, {Name: "delete-repo"}}}
	a.AddBackend("github", backend, []string{"delete-repo"})
	a.RemoveBackend("github")
	a.AddBackend("github", backend, nil)

	tools, err := a.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() error = %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("tools len = %d, want 2 (exclusion should be cleared)", len(tools))
	}
}

func TestDescriptionIsPrefixedWithServiceName(t *testing.T) {
	a := New()
	a.AddBackend("github", &fakeBackend{tools: []mcptypes.Tool{{Name: "search"}}}, nil)
	a.AddBackend("files", &fakeBackend{tools: []mcptypes.Tool{{Name: "read", Description: "Read a file"}}}, nil)

	tools, err := a.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() error = %v", err)
	}

	for _, tool := range tools {
		switch tool.OriginalName {
		case "search":
			if tool.Description != "[github]" {
				t.Fatalf("description = %q, want [github]", tool.Description)
			}
		case "read":
			if tool.Description != "[files] Read a file" {
				t.Fatalf("description = %q, want [files] Read a file", tool.Description)
			}
		}
	}
}

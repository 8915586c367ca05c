package middleware

import (
	"errors"
	"testing"

	"github.com/alex4o/mcpd/internal/mcptypes"
)

var errBoom = errors.New("boom")

func TestStripJSONKeysOperatesOnRawText(t *testing.T) {
	result := mcptypes.TextResult(`{"name": "test", "age": 9}`)
	out, err := stripJSONKeys("any", result)
	if err != nil {
		t.Fatalf("stripJSONKeys() error = %v", err)
	}
	want := `{name: "test", age: 9}`
	if got := out.Content[0].Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestStripResultWrapperUnwrapsSingleKeyObject(t *testing.T) {
	result := mcptypes.TextResult(`{"result":{"name":"test"}}`)
	out, err := stripResultWrapper("any", result)
	if err != nil {
		t.Fatalf("stripResultWrapper() error = %v", err)
	}
	want := `{"name":"test"}`
	if got := out.Content[0].Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestStripResultWrapperPassesThroughNonMatchingShape(t *testing.T) {
	result := mcptypes.TextResult(`{"value": 1, "other": 2}`)
	out, err := stripResultWrapper("any", result)
	if err != nil {
		t.Fatalf("stripResultWrapper() error = %v", err)
	}
	if got := out.Content[0].Text; got != `{"value": 1, "other": 2}` {
		t.Fatalf("text = %q, want original text unchanged", got)
	}
}

func TestExtractJSONResultsReplacesWithResultsValue(t *testing.T) {
	result := mcptypes.TextResult(`{"results":["a","b"],"total":2}`)
	out, err := extractJSONResults("any", result)
	if err != nil {
		t.Fatalf("extractJSONResults() error = %v", err)
	}
	want := `["a","b"]`
	if got := out.Content[0].Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestJSON5DropsQuotesOnIdentifierKeys(t *testing.T) {
	result := mcptypes.TextResult(`{"name":"test","not-an-id":1}`)
	out, err := toJSON5("any", result)
	if err != nil {
		t.Fatalf("toJSON5() error = %v", err)
	}
	want := `{name: "test", "not-an-id": 1}`
	if got := out.Content[0].Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestToonRendersUniformArrayAsTable(t *testing.T) {
	result := mcptypes.TextResult(`[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]`)
	out, err := toToon("any", result)
	if err != nil {
		t.Fatalf("toToon() error = %v", err)
	}
	want := "[2]{id,name}:\n  1,Alice\n  2,Bob"
	if got := out.Content[0].Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestToonPassesThroughScalarJSON(t *testing.T) {
	result := mcptypes.TextResult(`42`)
	out, err := toToon("any", result)
	if err != nil {
		t.Fatalf("toToon() error = %v", err)
	}
	if got := out.Content[0].Text; got != "42" {
		t.Fatalf("text = %q, want unchanged 42", got)
	}
}

func TestNonTextBlocksPassThroughUnchanged(t *testing.T) {
	result := &mcptypes.ToolResult{Content: []mcptypes.ContentBlock{
		{Type: "image", Data: "base64data", MIMEType: "image/png"},
	}}
	out, err := stripJSONKeys("any", result)
	if err != nil {
		t.Fatalf("stripJSONKeys() error = %v", err)
	}
	if out.Content[0] != result.Content[0] {
		t.Fatalf("image block = %+v, want unchanged %+v", out.Content[0], result.Content[0])
	}
}

func TestParseFailureLeavesTextUnchanged(t *testing.T) {
	result := mcptypes.TextResult("not json at all")
	out, err := toJSON5("any", result)
	if err != nil {
		t.Fatalf("toJSON5() error = %v", err)
	}
	if got := out.Content[0].Text; got != "not json at all" {
		t.Fatalf("text = %q, want unchanged", got)
	}
}

func TestPipelineComposesStagesInDeclaredOrder(t *testing.T) {
	registry := Builtins()
	pipeline := Build(registry, []string{"strip-result-wrapper", "strip-json-keys"}, nil)

	result := mcptypes.TextResult(`{"result":{"name":"test"}}`)
	out := pipeline.Apply("any", result)

	want := `{name:"test"}`
	if got := out.Content[0].Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestPipelineSkipsUnknownMiddlewareNames(t *testing.T) {
	registry := Builtins()
	pipeline := Build(registry, []string{"does-not-exist", "strip-json-keys"}, nil)

	result := mcptypes.TextResult(`{"a": 1}`)
	out := pipeline.Apply("any", result)
	if got := out.Content[0].Text; got != `{a: 1}` {
		t.Fatalf("text = %q, want {a: 1}", got)
	}
}

func TestPipelineOnFailureReturnsUntransformedResult(t *testing.T) {
	registry := Registry{
		"boom": {Name: "boom", Response: func(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error) {
			return nil, errBoom
		}},
	}
	pipeline := Build(registry, []string{"boom"}, nil)

	result := mcptypes.TextResult("original")
	out := pipeline.Apply("any", result)
	if out != result {
		t.Fatalf("Apply() = %+v, want original result returned unchanged on middleware failure", out)
	}
}

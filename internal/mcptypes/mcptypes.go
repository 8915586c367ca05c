// Package mcptypes holds the protocol-agnostic shapes shared by the
// aggregator, middleware pipeline, backend adapter, front server, and
// proxy: a tool's name/schema and a tool call's result content blocks.
// Translation to and from github.com/mark3labs/mcp-go's wire types happens
// at the edges (backend adapter inbound, front server/proxy outbound) so
// the core logic never depends on the transport library's shapes directly.
package mcptypes

// Tool describes one callable tool as reported by a backend, before any
// namespacing is applied.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ContentBlock is one element of a ToolResult. Text blocks carry Text;
// image/audio/resource blocks pass their payload through untouched via
// Data/MIMEType/Resource without a text field, matching spec.md's "other
// blocks pass through unchanged".
type ContentBlock struct {
	Type     string // "text", "image", "audio", "resource"
	Text     string
	MIMEType string
	Data     string
	Resource *EmbeddedResource
}

// EmbeddedResource mirrors mcp-go's embedded-resource content block.
type EmbeddedResource struct {
	URI      string
	MIMEType string
	Text     string
	Blob     string
}

// IsText reports whether this block is a text content block — the only
// kind middleware transforms operate on.
func (c ContentBlock) IsText() bool {
	return c.Type == "text"
}

// ToolResult is an ordered sequence of content blocks plus an error flag,
// per spec.md's ToolResult data model entry.
type ToolResult struct {
	Content []ContentBlock
	IsError bool
}

// TextResult builds a single-text-block result, the common case for both
// successful results and the legacy toolResult-field normalization.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResult builds a single-text-block error result.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

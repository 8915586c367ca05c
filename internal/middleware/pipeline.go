// Package middleware implements the per-service response transform chain:
// an ordered sequence of named, pure functions applied to a tool call's
// result before it reaches the caller.
package middleware

import (
	"log/slog"

	"github.com/alex4o/mcpd/internal/mcptypes"
)

// Middleware is a named response transform. Response is nil for a
// middleware with nothing to do on the response path (the contract leaves
// room for request-side or other hooks later; none are used today).
type Middleware struct {
	Name     string
	Response func(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error)
}

// Registry maps a middleware identifier from mcpd.yml's middleware.response
// list to its implementation.
type Registry map[string]Middleware

// Builtins returns the five named transforms spec.md defines.
func Builtins() Registry {
	return Registry{
		stripJSONKeysName:      {Name: stripJSONKeysName, Response: stripJSONKeys},
		stripResultWrapperName: {Name: stripResultWrapperName, Response: stripResultWrapper},
		extractJSONResultsName: {Name: extractJSONResultsName, Response: extractJSONResults},
		json5Name:              {Name: json5Name, Response: toJSON5},
		toonName:               {Name: toonName, Response: toToon},
	}
}

// Pipeline is an ordered, resolved chain of middlewares for one service.
type Pipeline struct {
	stages []Middleware
	logger *slog.Logger
}

// Build resolves a service's mcpd.yml middleware.response names against
// registry, in declared order. An unknown name is dropped with a warning
// rather than failing the whole chain — a typo in one service's config
// should not break every service's responses.
func Build(registry Registry, names []string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{logger: logger.With("component", "middleware")}
	for _, name := range names {
		mw, ok := registry[name]
		if !ok {
			logger.Warn("unknown middleware, skipping", "name", name)
			continue
		}
		p.stages = append(p.stages, mw)
	}
	return p
}

// Apply folds result through every stage in order. A stage that returns an
// error does not drop the content: the untransformed result from before
// that stage is returned and the failure logged, per spec.md's error
// handling rule that middleware failures must never silently drop content.
func (p *Pipeline) Apply(toolName string, result *mcptypes.ToolResult) *mcptypes.ToolResult {
	if p == nil || result == nil {
		return result
	}
	current := result
	for _, mw := range p.stages {
		if mw.Response == nil {
			continue
		}
		next, err := mw.Response(toolName, current)
		if err != nil {
			p.logger.Error("middleware failed, passing through untransformed result", "middleware", mw.Name, "tool", toolName, "error", err)
			return current
		}
		current = next
	}
	return current
}

// Package aggregator implements the Tool Aggregator & Router: it fans
// tool listings out across every registered backend under a unified,
// conditionally namespaced inventory, and routes a namespaced tool call
// back to its origin backend by longest-matching-prefix name parsing.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/mcptypes"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownService is RouteError's "unknown service" case.
var ErrUnknownService = errors.New("unknown service")

// ErrInvalidName is RouteError's "no matching service prefix" case.
var ErrInvalidName = errors.New("invalid name: no matching service prefix")

// Backend is the minimal surface the aggregator needs from a connected
// client. internal/backend's stdio and SSE clients both implement it.
type Backend interface {
	ListTools(ctx context.Context) ([]mcptypes.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error)
}

// NamespacedTool augments a backend's tool with its routing metadata.
type NamespacedTool struct {
	Name         string // external, possibly namespaced name
	Description  string
	InputSchema  map[string]any
	Service      string
	OriginalName string
}

type registration struct {
	name    string
	backend Backend
	exclude map[string]struct{}
}

// Aggregator owns the registration order of backends (for listing order)
// and parses/routes namespaced tool calls.
type Aggregator struct {
	mu    sync.RWMutex
	order []string
	byName map[string]*registration
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{byName: make(map[string]*registration)}
}

// AddBackend registers a backend under name. excludeTools, if non-nil,
// hides those original tool names from this backend's inventory. Adding a
// backend that is already registered with no excludeTools clears any prior
// exclusion for that name, per spec.md's routing contract.
func (a *Aggregator) AddBackend(name string, backend Backend, excludeTools []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	exclude := config.ServiceConfig{ExcludeTools: excludeTools}.ExcludeSet()

	if _, exists := a.byName[name]; !exists {
		a.order = append(a.order, name)
	}
	a.byName[name] = &registration{name: name, backend: backend, exclude: exclude}
}

// RemoveBackend unregisters a backend. A subsequent AddBackend for the same
// name with no excludeTools starts with a clean exclusion set.
func (a *Aggregator) RemoveBackend(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.byName, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// ListAllTools fans listTools out to every registered backend concurrently
// and returns the concatenation of backends in registration order, each
// with its tools in backend order, external names namespaced per
// spec.md's conditional-namespacing rule.
func (a *Aggregator) ListAllTools(ctx context.Context) ([]NamespacedTool, error) {
	a.mu.RLock()
	order := append([]string(nil), a.order...)
	regs := make(map[string]*registration, len(a.byName))
	for k, v := range a.byName {
		regs[k] = v
	}
	multi := len(order) > 1
	a.mu.RUnlock()

	perService := make([][]NamespacedTool, len(order))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range order {
		i, name := i, name
		reg := regs[name]
		g.Go(func() error {
			tools, err := reg.backend.ListTools(gctx)
			if err != nil {
				return fmt.Errorf("listing tools for %q: %w", name, err)
			}
			perService[i] = namespaceTools(name, tools, reg.exclude, multi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []NamespacedTool
	for _, tools := range perService {
		out = append(out, tools...)
	}
	return out, nil
}

func namespaceTools(service string, tools []mcptypes.Tool, exclude map[string]struct{}, multi bool) []NamespacedTool {
	out := make([]NamespacedTool, 0, len(tools))
	for _, t := range tools {
		if _, excluded := exclude[t.Name]; excluded {
			continue
		}

		externalName := t.Name
		if multi {
			externalName = service + "_" + t.Name
		}

		desc := t.Description
		if desc != "" {
			desc = fmt.Sprintf("[%s] %s", service, desc)
		} else {
			desc = fmt.Sprintf("[%s]", service)
		}

		out = append(out, NamespacedTool{
			Name:         externalName,
			Description:  desc,
			InputSchema:  t.InputSchema,
			Service:      service,
			OriginalName: t.Name,
		})
	}
	return out
}

// ParseName recovers (service, originalName) from an external tool name.
// With one registered backend, the name is returned unchanged attributed
// to that backend. With more than one, every underscore position is
// scanned left-to-right and the longest prefix naming a registered backend
// wins, so "a_b_tool" resolves to service "a_b" when both "a" and "a_b"
// are registered.
func (a *Aggregator) ParseName(name string) (service, originalName string, err error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.order) == 1 {
		return a.order[0], name, nil
	}

	best := -1
	for i, c := range name {
		if c != '_' {
			continue
		}
		prefix := name[:i]
		if _, ok := a.byName[prefix]; ok && i > best {
			best = i
		}
	}
	if best < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name[:best], name[best+1:], nil
}

// RouteToolCall parses name, looks up its backend, and invokes callTool
// with the recovered original name.
func (a *Aggregator) RouteToolCall(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, string, error) {
	service, original, err := a.ParseName(name)
	if err != nil {
		return nil, "", err
	}

	a.mu.RLock()
	reg, ok := a.byName[service]
	a.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownService, service)
	}

	result, err := reg.backend.CallTool(ctx, original, args)
	return result, service, err
}

// ServiceNames returns registered backend names sorted alphabetically, for
// deterministic log output.
func (a *Aggregator) ServiceNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := append([]string(nil), a.order...)
	sort.Strings(out)
	return out
}

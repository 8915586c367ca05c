// Package proxy implements the stdio-to-SSE proxy: it spawns a single
// stdio MCP backend, fronts it with mark3labs/mcp-go's own SSE server
// (the same server.NewSSEServer wiring other_examples' context-forge and
// one-mcp gateways use), and keeps a state-store entry in sync with the
// proxy's own lifecycle so the supervisor's reuse-on-restart logic also
// covers proxied backends.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/alex4o/mcpd/internal/backend"
	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/statestore"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
)

// State is the proxy's lifecycle phase.
type State string

const (
	StateStarting      State = "starting"
	StateServing       State = "serving"
	StateReconnecting  State = "reconnecting"
	StateShuttingDown  State = "shutting-down"
)

const (
	minBackoff   = 1 * time.Second
	maxBackoff   = 30 * time.Second
	pingInterval = 30 * time.Second
)

// Options configures one proxy instance.
type Options struct {
	Name    string
	Port    int
	Service config.ServiceConfig
}

// Proxy exposes a single stdio MCP backend over HTTP/SSE.
type Proxy struct {
	opts   Options
	store  *statestore.Store
	logger *slog.Logger

	connectFn func(ctx context.Context) (backend.Client, error)
	sleepFn   func(d time.Duration)

	mu       sync.Mutex
	state    State
	client   backend.Client
	listener net.Listener
	server   *http.Server

	shutdownOnce sync.Once

	// runID identifies this proxy process instance, distinct from the MCP
	// session IDs mcp-go's SSE server assigns per client connection. It is
	// surfaced on /health so operators can tell a respawned proxy apart
	// from the one it replaced after a reconnect or restart.
	runID string
}

// New builds a Proxy for the given options. The service's stdio command is
// spawned only once ListenAndServe is called.
func New(opts Options, store *statestore.Store, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.Name
	runID := uuid.NewString()
	return &Proxy{
		opts:   opts,
		store:  store,
		logger: logger.With("component", "proxy", "service", name, "run_id", runID),
		state:  StateStarting,
		runID:  runID,
		connectFn: func(ctx context.Context) (backend.Client, error) {
			return backend.ConnectStdio(ctx, opts.Service)
		},
		sleepFn: time.Sleep,
	}
}

// State returns the proxy's current lifecycle phase.
func (p *Proxy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ListenAndServe spawns the backend, builds the SSE front end, and blocks
// serving HTTP until ctx is canceled or Shutdown is called.
func (p *Proxy) ListenAndServe(ctx context.Context) error {
	client, err := p.connectFn(ctx)
	if err != nil {
		return fmt.Errorf("starting backend %q: %w", p.opts.Service.Command, err)
	}
	p.mu.Lock()
	p.client = client
	p.mu.Unlock()

	mcpServer, err := p.buildMCPServer(ctx)
	if err != nil {
		_ = client.Disconnect()
		return fmt.Errorf("building MCP server for %q: %w", p.opts.Name, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("mcpd-proxy-run-id", p.runID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	sseServer := server.NewSSEServer(mcpServer)
	mux.Handle("/sse", sseServer)
	mux.Handle("/message", sseServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", p.opts.Port))
	if err != nil {
		_ = client.Disconnect()
		return fmt.Errorf("listening on port %d: %w", p.opts.Port, err)
	}

	p.mu.Lock()
	p.listener = listener
	p.server = &http.Server{Handler: mux}
	p.state = StateServing
	p.mu.Unlock()

	effectivePort := listener.Addr().(*net.TCPAddr).Port
	p.logger.Info("proxy serving", "port", effectivePort)

	if p.store != nil {
		_ = p.store.Set(p.opts.Name, statestore.Entry{
			State: statestore.StateReady,
			PID:   client.PID(),
			URL:   fmt.Sprintf("http://127.0.0.1:%d", effectivePort),
		})
	}

	go p.pingLoop(ctx)

	serveErr := make(chan error, 1)
	go func() { serveErr <- p.server.Serve(listener) }()

	select {
	case <-ctx.Done():
		return p.Shutdown(context.Background())
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// buildMCPServer lists tools, and conditionally prompts and resources, from
// the connected backend and registers each with a handler that always
// resolves the current client, so a later reconnect can swap the client
// without rebuilding registration.
func (p *Proxy) buildMCPServer(ctx context.Context) (*server.MCPServer, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	tools, err := client.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing backend tools: %w", err)
	}

	mcpServer := server.NewMCPServer(p.opts.Name, "0.1.0", server.WithRecovery())
	for _, tool := range tools {
		mcpServer.AddTool(toWireTool(tool), p.toolHandler(tool.Name))
	}

	if prompts, ok := client.(promptCapable); ok {
		p.registerPrompts(ctx, prompts, mcpServer)
	}
	if resources, ok := client.(resourceCapable); ok {
		p.registerResources(ctx, resources, mcpServer)
	}

	return mcpServer, nil
}

func (p *Proxy) currentClient() backend.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}

// Shutdown closes the backend client, stops the HTTP listener, and removes
// the proxy's state-store entry. It is safe to call more than once.
func (p *Proxy) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.state = StateShuttingDown
		srv := p.server
		client := p.client
		p.mu.Unlock()

		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		if client != nil {
			_ = client.Disconnect()
		}
		if p.store != nil {
			_ = p.store.Delete(p.opts.Name)
		}
		p.logger.Info("proxy shut down")
	})
	return err
}

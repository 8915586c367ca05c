package backend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alex4o/mcpd/internal/mcptypes"
)

// IdleCloser wraps a Client that the supervisor did not itself spawn (a
// long-lived SSE or stdio backend connection) and closes the underlying
// transport after idleAfter with no calls, reopening it lazily on the next
// one. This is not part of the Service Supervisor's process lifecycle —
// it is a connection-level supplement for backend clients that would
// otherwise hold a socket or child process open indefinitely.
type IdleCloser struct {
	mu        sync.Mutex
	client    Client
	connect   func(ctx context.Context) (Client, error)
	idleAfter time.Duration
	timer     *time.Timer
	logger    *slog.Logger
}

// NewIdleCloser wraps initial (already connected) and will call connect to
// reestablish the transport after an idle-triggered close.
func NewIdleCloser(initial Client, connect func(ctx context.Context) (Client, error), idleAfter time.Duration, logger *slog.Logger) *IdleCloser {
	if logger == nil {
		logger = slog.Default()
	}
	k := &IdleCloser{client: initial, connect: connect, idleAfter: idleAfter, logger: logger.With("component", "backend.idle")}
	k.resetTimerLocked()
	return k
}

func (k *IdleCloser) resetTimerLocked() {
	if k.idleAfter <= 0 {
		return
	}
	if k.timer != nil {
		k.timer.Stop()
	}
	k.timer = time.AfterFunc(k.idleAfter, k.onIdle)
}

func (k *IdleCloser) onIdle() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.client == nil {
		return
	}
	if err := k.client.Disconnect(); err != nil {
		k.logger.Warn("error closing idle backend connection", "error", err)
	}
	k.client = nil
}

func (k *IdleCloser) ensure(ctx context.Context) (Client, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.resetTimerLocked()
	if k.client != nil {
		return k.client, nil
	}
	client, err := k.connect(ctx)
	if err != nil {
		return nil, err
	}
	k.client = client
	return client, nil
}

func (k *IdleCloser) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	client, err := k.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListTools(ctx)
}

func (k *IdleCloser) CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error) {
	client, err := k.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return client.CallTool(ctx, name, args)
}

func (k *IdleCloser) Ping(ctx context.Context) error {
	client, err := k.ensure(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}

func (k *IdleCloser) Disconnect() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.timer != nil {
		k.timer.Stop()
	}
	if k.client == nil {
		return nil
	}
	err := k.client.Disconnect()
	k.client = nil
	return err
}

func (k *IdleCloser) PID() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.client == nil {
		return 0
	}
	return k.client.PID()
}

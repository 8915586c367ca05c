package proxy

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alex4o/mcpd/internal/backend"
	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/mcptypes"
)

type fakeClient struct {
	pid    int
	closed bool
}

func (f *fakeClient) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	return nil, nil
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.ToolResult, error) {
	return mcptypes.TextResult("ok"), nil
}

func (f *fakeClient) Ping(ctx context.Context) error {
	return nil
}

func (f *fakeClient) Disconnect() error {
	f.closed = true
	return nil
}

func (f *fakeClient) PID() int {
	return f.pid
}

func newTestProxy(policy config.RestartPolicy) *Proxy {
	return &Proxy{
		opts:    Options{Name: "svc", Service: config.ServiceConfig{Restart: policy}},
		state:   StateServing,
		client:  &fakeClient{},
		sleepFn: func(time.Duration) {},
		logger:  slog.Default(),
	}
}

func waitForState(t *testing.T, p *Proxy, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("State() never reached %v, last was %v", want, p.State())
}

func TestHandleBackendDownNeverShutsDownImmediately(t *testing.T) {
	p := newTestProxy(config.RestartNever)
	p.connectFn = func(ctx context.Context) (backend.Client, error) {
		return nil, errors.New("unused")
	}

	p.handleBackendDown(context.Background())

	waitForState(t, p, StateShuttingDown)
	if !p.client.(*fakeClient).closed {
		t.Fatalf("original client was not disconnected on shutdown")
	}
}

func TestHandleBackendDownOnFailureReconnectsOnSuccess(t *testing.T) {
	p := newTestProxy(config.RestartOnFailure)
	reconnected := &fakeClient{pid: 99}
	p.connectFn = func(ctx context.Context) (backend.Client, error) {
		return reconnected, nil
	}

	p.handleBackendDown(context.Background())

	if p.State() != StateServing {
		t.Fatalf("State() = %v, want %v", p.State(), StateServing)
	}
	if p.currentClient() != backend.Client(reconnected) {
		t.Fatalf("client was not swapped to the reconnected client")
	}
}

func TestHandleBackendDownOnFailureGivesUpAfterCappedBackoffFails(t *testing.T) {
	p := newTestProxy(config.RestartOnFailure)
	attempts := 0
	p.connectFn = func(ctx context.Context) (backend.Client, error) {
		attempts++
		return nil, errors.New("still down")
	}

	p.handleBackendDown(context.Background())

	waitForState(t, p, StateShuttingDown)
	if attempts == 0 {
		t.Fatal("connectFn was never called")
	}
}

func TestHandleBackendDownAlwaysRetriesPastCappedBackoff(t *testing.T) {
	p := newTestProxy(config.RestartAlways)
	attempts := 0
	reconnected := &fakeClient{pid: 7}
	p.connectFn = func(ctx context.Context) (backend.Client, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("still down")
		}
		return reconnected, nil
	}

	p.handleBackendDown(context.Background())

	if p.State() != StateServing {
		t.Fatalf("State() = %v, want %v", p.State(), StateServing)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestHandleBackendDownIgnoresReentryWhileAlreadyReconnecting(t *testing.T) {
	p := newTestProxy(config.RestartOnFailure)
	p.state = StateReconnecting
	called := false
	p.connectFn = func(ctx context.Context) (backend.Client, error) {
		called = true
		return &fakeClient{}, nil
	}

	p.handleBackendDown(context.Background())

	if called {
		t.Fatal("connectFn was called while already reconnecting")
	}
}

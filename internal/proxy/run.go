package proxy

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alex4o/mcpd/internal/statestore"
)

// Run builds a Proxy for opts and blocks until SIGINT/SIGTERM, then shuts
// down cleanly. It is the entry point the proxy CLI subcommand calls.
func Run(ctx context.Context, opts Options, store *statestore.Store, logger *slog.Logger) error {
	p := New(opts, store, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- p.ListenAndServe(ctx) }()

	select {
	case <-ctx.Done():
		return p.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

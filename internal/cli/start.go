package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alex4o/mcpd/internal/aggregator"
	"github.com/alex4o/mcpd/internal/backend"
	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/frontserver"
	"github.com/alex4o/mcpd/internal/middleware"
	"github.com/alex4o/mcpd/internal/paths"
	"github.com/alex4o/mcpd/internal/supervisor"
)

// idleEvictAfter bounds how long a connected backend client can sit
// without a call before the keepalive supplement closes its transport.
const idleEvictAfter = 10 * time.Minute

func runStart(ctx context.Context, configPath string, logger *slog.Logger) int {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: %v\n", err)
		return ExitError
	}

	store, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: %v\n", err)
		return ExitError
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := writePidFile(); err != nil {
		logger.Warn("could not write pid file", "error", err)
	}
	defer removePidFile()

	super := supervisor.New(store, logger)

	sseToSupervise := make(map[string]config.ServiceConfig)
	for name, svc := range cfg.Services {
		if svc.EffectiveTransport() == config.TransportSSE && !svc.EffectiveKeepAlive() {
			sseToSupervise[name] = svc
		}
	}
	if len(sseToSupervise) > 0 {
		if err := super.StartAll(ctx, sseToSupervise); err != nil {
			fmt.Fprintf(os.Stderr, "mcpd: starting services: %v\n", err)
			return ExitError
		}
	}

	agg := aggregator.New()
	pipelines := make(map[string]*middleware.Pipeline)
	registry := middleware.Builtins()

	var connected []backend.Client
	defer func() {
		for _, c := range connected {
			_ = c.Disconnect()
		}
	}()

	for _, name := range sortedNames(cfg) {
		svc := cfg.Services[name]
		client, err := backend.Connect(ctx, svc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mcpd: connecting backend %q: %v\n", name, err)
			continue
		}
		idle := backend.NewIdleCloser(client, func(ctx context.Context) (backend.Client, error) {
			return backend.Connect(ctx, svc)
		}, idleEvictAfter, logger)
		connected = append(connected, idle)

		if pid := idle.PID(); pid > 0 {
			if err := super.RegisterPid(name, pid, svc.URL); err != nil {
				logger.Warn("could not register backend pid", "service", name, "error", err)
			}
		}

		agg.AddBackend(name, idle, svc.ExcludeTools)
		pipelines[name] = middleware.Build(registry, svc.Middleware.Response, logger)
	}

	srv := frontserver.New(agg, pipelines, logger)
	err = srv.Serve(ctx)

	if len(sseToSupervise) > 0 {
		skipKeepAlive := func(name string, svc config.ServiceConfig) bool {
			return svc.EffectiveKeepAlive()
		}
		if stopErr := super.StopAll(skipKeepAlive); stopErr != nil {
			logger.Error("error stopping supervised services", "error", stopErr)
		}
	}

	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "mcpd: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func writePidFile() error {
	return os.WriteFile(paths.PidFile(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePidFile() {
	_ = os.Remove(paths.PidFile())
}

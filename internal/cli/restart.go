package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/supervisor"
)

// restartSettleDelay gives a killed process time to exit and release its
// port/socket before the supervisor starts a replacement.
const restartSettleDelay = time.Second

func runRestart(ctx context.Context, configPath string, names []string, logger *slog.Logger) int {
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

	targets := names
	if len(targets) == 0 || targets[0] == "all" {
		targets = sortedNames(cfg)
	}

	super := supervisor.New(store, logger)

	exit := ExitOK
	for _, name := range targets {
		svc, ok := cfg.Services[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "mcpd: %s: not found in config\n", name)
			exit = ExitError
			continue
		}
		if svc.EffectiveTransport() != config.TransportSSE {
			fmt.Fprintf(os.Stderr, "mcpd: %s: only sse-transport services can be restarted standalone\n", name)
			exit = ExitError
			continue
		}
		if err := killTracked(store, name); err != nil {
			logger.Warn("restart: no running process to kill", "service", name, "error", err)
		}
		time.Sleep(restartSettleDelay)
		if err := super.Start(ctx, name, svc); err != nil {
			fmt.Fprintf(os.Stderr, "mcpd: %s: restart failed: %v\n", name, err)
			exit = ExitError
		}
	}
	return exit
}

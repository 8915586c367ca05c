package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/proxy"
)

// runProxy parses `-p <port> [-n <name>] [--restart <policy>] -- <cmd> <args...>`
// and runs the stdio-to-SSE proxy against the given command.
func runProxy(ctx context.Context, args []string, logger *slog.Logger) int {
	opts, err := parseProxyArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: proxy: %v\n", err)
		return ExitUsageErr
	}

	store, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: %v\n", err)
		return ExitError
	}

	if err := proxy.Run(ctx, opts, store, logger); err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: proxy: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func parseProxyArgs(args []string) (proxy.Options, error) {
	name := ""
	port := 0
	portGiven := false
	restart := config.RestartOnFailure

	i := 0
	for ; i < len(args); i++ {
		switch args[i] {
		case "-p", "--port":
			if i+1 >= len(args) {
				return proxy.Options{}, fmt.Errorf("-p requires a value")
			}
			p, err := strconv.Atoi(args[i+1])
			if err != nil {
				return proxy.Options{}, fmt.Errorf("invalid port %q: %w", args[i+1], err)
			}
			port = p
			portGiven = true
			i++
		case "-n", "--name":
			if i+1 >= len(args) {
				return proxy.Options{}, fmt.Errorf("-n requires a value")
			}
			name = args[i+1]
			i++
		case "--restart":
			if i+1 >= len(args) {
				return proxy.Options{}, fmt.Errorf("--restart requires a value")
			}
			restart = config.RestartPolicy(args[i+1])
			i++
		case "--":
			i++
			goto command
		default:
			return proxy.Options{}, fmt.Errorf("unknown flag %q", args[i])
		}
	}

command:
	if !portGiven {
		return proxy.Options{}, fmt.Errorf("-p/--port is required (use -p 0 for an OS-chosen port)")
	}
	if i >= len(args) {
		return proxy.Options{}, fmt.Errorf("missing command after --")
	}
	cmd := args[i]
	cmdArgs := args[i+1:]

	if name == "" {
		name = filepath.Base(cmd)
	}

	switch restart {
	case config.RestartNever, config.RestartOnFailure, config.RestartAlways:
	default:
		return proxy.Options{}, fmt.Errorf("invalid --restart policy %q", restart)
	}

	return proxy.Options{
		Name: name,
		Port: port,
		Service: config.ServiceConfig{
			Command:   cmd,
			Args:      cmdArgs,
			Transport: config.TransportStdio,
			Restart:   restart,
		},
	}, nil
}

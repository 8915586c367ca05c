// Package cli implements the mcpd command dispatcher: a bare stdlib
// subcommand switch in the same style the teacher's internal/cli/root.go
// uses (manual arg parsing, fmt.Fprintf to stderr, an int exit code),
// rather than pulling in a flag-parsing framework none of the corpus uses
// for this shape of tool.
package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/logging"
	"github.com/alex4o/mcpd/internal/paths"
	"github.com/alex4o/mcpd/internal/statestore"
)

const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsageErr = 1
)

// Run is the CLI entry point. Returns a process exit code.
func Run(ctx context.Context, args []string) int {
	verbose, args := extractVerboseFlag(args)
	configPath, rest := extractConfigFlag(args)
	logger := logging.New(verbose, "")

	if len(rest) == 0 {
		return runStart(ctx, configPath, logger)
	}

	switch rest[0] {
	case "init":
		return runInit()
	case "start":
		return runStart(ctx, configPath, logger)
	case "ps", "list", "ls":
		return runPS(configPath)
	case "kill":
		return runKill(configPath, rest[1:])
	case "stop":
		return runKill(configPath, []string{"all"})
	case "restart":
		return runRestart(ctx, configPath, rest[1:], logger)
	case "proxy":
		return runProxy(ctx, rest[1:], logger)
	case "help", "--help", "-h":
		printHelp(os.Stdout)
		return ExitOK
	default:
		fmt.Fprintf(os.Stderr, "mcpd: unknown command: %s\n", rest[0])
		printHelp(os.Stderr)
		return ExitUsageErr
	}
}

// extractVerboseFlag pulls -v/--verbose out of args wherever it appears.
func extractVerboseFlag(args []string) (bool, []string) {
	verbose := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			verbose = true
			continue
		}
		rest = append(rest, a)
	}
	return verbose, rest
}

// extractConfigFlag pulls -c/--config <path> out of args wherever it
// appears and returns the resolved config path (paths.ConfigFile()'s
// default search when absent) plus the remaining arguments in order.
func extractConfigFlag(args []string) (string, []string) {
	configPath := ""
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-c", "--config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
				continue
			}
		default:
			rest = append(rest, args[i])
		}
	}
	if configPath == "" {
		configPath = paths.ConfigFile()
	}
	return configPath, rest
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*statestore.Store, error) {
	return statestore.Open(paths.StateFile(), nil)
}

func sortedNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Services))
	for name := range cfg.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: mcpd [-c|--config <path>] [-v|--verbose] <command> [args...]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  init                  Scaffold a starter mcpd.yml in the current directory")
	fmt.Fprintln(w, "  start                 Load config, start services, expose aggregator on stdio (default)")
	fmt.Fprintln(w, "  ps, list, ls          Print daemon status and per-service pid/url/state")
	fmt.Fprintln(w, "  kill [name|all]       SIGTERM the tracked PID(s)")
	fmt.Fprintln(w, "  restart [name|all]    Kill then restart SSE services via the supervisor")
	fmt.Fprintln(w, "  stop                  Equivalent to kill all")
	fmt.Fprintln(w, "  proxy -p <port> [-n <name>] [--restart <policy>] -- <cmd> <args...>")
	fmt.Fprintln(w, "                        Run the stdio-to-SSE proxy")
	fmt.Fprintln(w, "  help, --help          Show this usage text")
}

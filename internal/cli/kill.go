package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/alex4o/mcpd/internal/statestore"
)

func runKill(configPath string, names []string) int {
	store, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: %v\n", err)
		return ExitError
	}

	targets := names
	if len(targets) == 0 || targets[0] == "all" {
		targets = nil
		for name := range store.All() {
			targets = append(targets, name)
		}
	}

	exit := ExitOK
	for _, name := range targets {
		if err := killTracked(store, name); err != nil {
			fmt.Fprintf(os.Stderr, "mcpd: %s: %v\n", name, err)
			exit = ExitError
		}
	}
	return exit
}

// killFn is a seam over syscall.Kill so tests can exercise killTracked
// without sending a real signal to any process, including themselves.
var killFn = syscall.Kill

func killTracked(store *statestore.Store, name string) error {
	entry, ok := store.Get(name)
	if !ok || entry.PID == 0 {
		return fmt.Errorf("no tracked pid")
	}
	if err := killFn(entry.PID, syscall.SIGTERM); err != nil {
		return err
	}
	return store.Set(name, statestore.Entry{State: statestore.StateStopped})
}

package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alex4o/mcpd/internal/paths"
	"github.com/alex4o/mcpd/internal/statestore"
)

func runPS(configPath string) int {
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

	entries := store.All()
	names := sortedNames(cfg)
	for name := range entries {
		if _, ok := cfg.Services[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	daemon := "not running"
	if data, err := os.ReadFile(paths.PidFile()); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 && syscall.Kill(pid, 0) == nil {
			daemon = fmt.Sprintf("running (pid %d)", pid)
		}
	}
	fmt.Printf("daemon: %s\n", daemon)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tPID\tURL")
	for _, name := range names {
		entry, ok := entries[name]
		if !ok {
			entry = statestore.Entry{State: statestore.StateStopped}
		}
		pid := "-"
		if entry.PID != 0 {
			pid = fmt.Sprintf("%d", entry.PID)
		}
		url := entry.URL
		if url == "" {
			url = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, entry.State, pid, url)
	}
	tw.Flush()
	return ExitOK
}

package cli

import (
	"fmt"
	"os"

	"github.com/alex4o/mcpd/internal/config"
	"github.com/alex4o/mcpd/internal/paths"
)

// runInit scaffolds a starter mcpd.yml at the project root, unless one is
// already there.
func runInit() int {
	target := paths.NewConfigFile()
	if _, err := os.Stat(target); err == nil {
		fmt.Fprintf(os.Stderr, "mcpd: init: %s already exists\n", target)
		return ExitError
	}

	starter := &config.Config{
		Services: map[string]config.ServiceConfig{
			"example": {
				Command:   "example-mcp-server",
				Transport: config.TransportStdio,
				Restart:   config.RestartOnFailure,
			},
		},
	}

	if err := config.SaveTo(target, starter); err != nil {
		fmt.Fprintf(os.Stderr, "mcpd: init: %v\n", err)
		return ExitError
	}

	fmt.Printf("mcpd: wrote %s\n", target)
	return ExitOK
}

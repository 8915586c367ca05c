// Command mcpd is the MCP service daemon: it supervises configured
// backends, aggregates and routes their tools over a single stdio MCP
// endpoint, and can also run a standalone stdio-to-SSE proxy.
package main

import (
	"context"
	"os"

	"github.com/alex4o/mcpd/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:]))
}

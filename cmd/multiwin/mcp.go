package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: multiwin mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'multiwin mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin mcp serve [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start a read-only MCP server on stdio exposing the window roster")
		fmt.Fprintln(os.Stderr, "of the configured origin.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := requireSharedBackend(cfg, "mcp serve"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// stdout carries the protocol.
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	m, closeMedium, err := openMedium(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open medium: %v\n", err)
		return 1
	}
	defer closeMedium()

	ctx, cancel := signalContext()
	defer cancel()

	if err := mcp.NewServer(m, cfg.Origin, logger).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}

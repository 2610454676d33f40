package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/daemon"
	"github.com/1broseidon/multiwin/internal/medium"
	"github.com/1broseidon/multiwin/internal/platform"
	"github.com/1broseidon/multiwin/internal/tui"
	"github.com/1broseidon/multiwin/internal/winreg"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "view":
		os.Exit(runView(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "clear":
		os.Exit(runClear(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: multiwin <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Register this window and publish its geometry (foreground)")
	fmt.Fprintln(w, "  view                Register and draw the shared scene in this terminal")
	fmt.Fprintln(w, "  list                Print the shared window roster")
	fmt.Fprintln(w, "  clear               Wipe the shared medium")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'multiwin <command> --help' for command-specific options.")
}

// session is everything a registering command needs.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	medium   medium.Medium
	geometry winreg.GeometrySource
	metadata json.RawMessage
	closers  []func()
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openSession(configPath, metadataFlag string, logOut io.Writer) (*session, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Logging, logOut)

	metadata, err := resolveMetadata(cfg, metadataFlag)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, metadata: metadata}
	if cfg.Medium.Backend == config.BackendMemory {
		logger.Warn("memory backend shares state with no other process")
	}

	m, closeMedium, err := openMedium(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.medium = m
	s.closers = append(s.closers, closeMedium)

	geometry, release, err := platform.NewSource(cfg.Geometry, logger)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("geometry source: %w", err)
	}
	s.geometry = geometry
	s.closers = append(s.closers, release)
	return s, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// requireSharedBackend rejects the memory backend for commands that only
// observe other processes; a fresh in-process hub is always empty.
func requireSharedBackend(cfg *config.Config, command string) error {
	if cfg.Medium.Backend == config.BackendMemory {
		return fmt.Errorf("%s: medium.backend %q is private to one process; use %q", command, config.BackendMemory, config.BackendFile)
	}
	return nil
}

func openMedium(cfg *config.Config, logger *slog.Logger) (medium.Medium, func(), error) {
	switch cfg.Medium.Backend {
	case config.BackendMemory:
		m := medium.NewHub().Open()
		return m, func() { _ = m.Close() }, nil
	default:
		dir, err := cfg.MediumDir()
		if err != nil {
			return nil, nil, err
		}
		f, err := medium.NewFile(dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {
			if err := f.Close(); err != nil {
				logger.Warn("failed to close medium", "error", err)
			}
		}, nil
	}
}

// resolveMetadata prefers the --metadata flag over the config file.
func resolveMetadata(cfg *config.Config, flagValue string) (json.RawMessage, error) {
	if flagValue != "" {
		if !json.Valid([]byte(flagValue)) {
			return nil, fmt.Errorf("--metadata is not valid JSON")
		}
		return json.RawMessage(flagValue), nil
	}
	return cfg.MetadataJSON()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
	metadata := fs.String("metadata", "", "JSON metadata published with this window (overrides config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin run [--config PATH] [--metadata JSON]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Register this window, republish its geometry until interrupted,")
		fmt.Fprintln(os.Stderr, "then remove it from the roster.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	s, err := openSession(*path, *metadata, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.close()

	reg := winreg.New(s.medium, s.geometry, winreg.WithLogger(s.logger))
	defer reg.Close()

	reg.OnMembershipChanged(func() {
		s.logger.Info("roster changed", "count", len(reg.Windows()))
	})
	reg.OnShapeChanged(func() {
		self := reg.Self()
		s.logger.Info("geometry changed",
			"window_id", self.ID,
			"x", self.Shape.X,
			"y", self.Shape.Y,
			"w", self.Shape.W,
			"h", self.Shape.H,
		)
	})

	id := reg.Register(s.metadata)
	s.logger.Info("registered", "window_id", id, "origin", s.cfg.Origin, "count", len(reg.Windows()))

	ctx, cancel := signalContext()
	defer cancel()

	runner := daemon.NewRunner(daemon.RunnerConfig{
		Interval: s.cfg.PollInterval(),
		Logger:   s.logger,
	}, reg)
	runner.Run(ctx)

	s.logger.Info("deregistered", "window_id", id)
	return 0
}

func runView(args []string) int {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
	metadata := fs.String("metadata", "", "JSON metadata published with this window (overrides config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin view [--config PATH] [--metadata JSON]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Register this window and draw every registered window in this")
		fmt.Fprintln(os.Stderr, "terminal. Press q to quit.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	// Log lines would tear the raw-mode screen.
	s, err := openSession(*path, *metadata, io.Discard)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.close()

	reg := winreg.New(s.medium, s.geometry, winreg.WithLogger(s.logger))
	defer reg.Close()
	reg.Register(s.metadata)
	defer reg.Deregister()

	ctx, cancel := signalContext()
	defer cancel()

	if err := tui.New(reg, s.cfg.PollInterval()).Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

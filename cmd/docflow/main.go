package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/docflow-mcp/internal/config"
	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/internal/mcp"
	"github.com/dshills/docflow-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `Usage: docflow [command]

Commands:
  serve      Run the MCP server on stdio (default)
  env        List the environment variables docflow reads
  --version  Print version and build information
`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "--version", "version":
		fmt.Printf("docflow MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
	case "env":
		for _, m := range config.EnvMappings() {
			fmt.Printf("%-32s %s\n", m.EnvVar, m.ConfigPath)
		}
	case "serve":
		if err := serve(); err != nil {
			log.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

func serve() error {
	// stdout is reserved for the MCP protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.SetLevel(cfg.Log.Level)

	log.Infof("docflow MCP Server v%s starting...", version)
	log.Infof("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() { _ = server.Close() }()

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	served := make(chan struct{})

	g.Go(func() error {
		defer close(served)
		log.Infof("MCP server ready, listening on stdio...")
		return server.Serve(gctx)
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Infof("Shutting down gracefully...")
		case <-served:
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Infof("Server stopped")
	return nil
}

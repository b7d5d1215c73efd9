package mcp

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/internal/config"
	"github.com/dshills/docflow-mcp/internal/generator"
	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/internal/processor"
	"github.com/dshills/docflow-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "docflow-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DBFileName is the run history database inside the configured directory
	DBFileName = "runs.db"
)

// notifyFunc sends a notification to the client that issued a request
type notifyFunc func(ctx context.Context, method string, params map[string]any) error

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	storage  storage.Storage
	sessions *generator.SessionPool
	counter  complexity.TokenCounter
	sem      *semaphore.Weighted
	notify   notifyFunc
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath, err := ExpandPath(cfg.Server.DBPath)
	if err != nil {
		return nil, err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Initialize storage
	store, err := storage.NewSQLiteStorage(filepath.Join(dbPath, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s, err := newServer(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// newServer wires the server around an open store
func newServer(cfg *config.Config, store storage.Storage) (*Server, error) {
	counter, err := complexity.NewCounter(cfg.Processing.TokenCounter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token counter: %w", err)
	}

	sessions, err := generator.NewSessionPool(cfg.Server.SessionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session pool: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:      mcpServer,
		cfg:      cfg,
		storage:  store,
		sessions: sessions,
		counter:  counter,
		sem:      semaphore.NewWeighted(int64(cfg.Server.MaxConcurrent)),
		notify:   notifyClient,
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until stdin is closed or
// ctx is canceled
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(os.Stderr, "mcp: ", stdlog.LstdFlags))

	log.Infof("%s %s serving on stdio", ServerName, ServerVersion)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the generator sessions and the run history database
func (s *Server) Close() error {
	_ = s.sessions.Close()
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(reformatDocumentTool(), s.handleReformatDocument)
	s.mcp.AddTool(rewriteDocumentTool(), s.handleRewriteDocument)
	s.mcp.AddTool(analyzeDocumentTool(), s.handleAnalyzeDocument)
	s.mcp.AddTool(getRunTool(), s.handleGetRun)
	s.mcp.AddTool(listRunsTool(), s.handleListRuns)
	return nil
}

// processor builds a processor backed by the pooled session for gc. The
// caller releases the session when the request is done.
func (s *Server) processor(ctx context.Context, gc generator.Config) (*processor.Processor, *generator.Session, error) {
	session, err := s.sessions.Get(ctx, gc)
	if err != nil {
		return nil, nil, err
	}
	p, err := processor.New(session, s.cfg.Processing.ToProcessor(), processor.WithTokenCounter(s.counter))
	if err != nil {
		session.Release()
		return nil, nil, err
	}
	return p, session, nil
}

// notifyClient sends through the MCP server attached to ctx, if any
func notifyClient(ctx context.Context, method string, params map[string]any) error {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}
	return srv.SendNotificationToClient(ctx, method, params)
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

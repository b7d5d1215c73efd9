package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docflow-mcp/internal/config"
	"github.com/dshills/docflow-mcp/internal/generator"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Generator.Provider = generator.ProviderEcho
	cfg.Server.DBPath = t.TempDir()
	cfg.Processing.CharCeiling = 500
	cfg.Processing.MaxChunkChars = 1000
	return cfg
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// decodeResult parses the JSON text of a tool result
func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code, mcpErr.Message)
}

func paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i%5 == 0 {
			fmt.Fprintf(&b, "## Section %d\n\n", i/5+1)
		}
		fmt.Fprintf(&b, "Paragraph %d explains one idea about the release process in plain words.\n\n", i+1)
	}
	return b.String()
}

func TestServer_Initialization(t *testing.T) {
	t.Run("creates database in configured directory", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.DBPath = filepath.Join(cfg.Server.DBPath, "nested")

		server, err := NewServer(cfg)
		require.NoError(t, err)
		defer server.Close()

		_, err = os.Stat(filepath.Join(cfg.Server.DBPath, DBFileName))
		assert.NoError(t, err)
	})

	t.Run("server has all required components", func(t *testing.T) {
		server := setupTestServer(t)

		assert.NotNil(t, server.mcp, "MCP server should be initialized")
		assert.NotNil(t, server.storage, "Storage should be initialized")
		assert.NotNil(t, server.sessions, "Session pool should be initialized")
		assert.NotNil(t, server.sem, "Semaphore should be initialized")
	})

	t.Run("invalid configuration is rejected", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.MaxConcurrent = 0

		_, err := NewServer(cfg)
		assert.Error(t, err)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.docflow", filepath.Join(home, ".docflow")},
		{"/var/lib/docflow", "/var/lib/docflow"},
		{"relative/dir", "relative/dir"},
		{"~other/dir", "~other/dir"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReformatDocument(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleReformatDocument(ctx, callRequest(map[string]interface{}{
		"content": "# Title\n\nHello world.",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	out := decodeResult(t, result)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "single_shot", out["mode"])
	assert.Contains(t, out["content"], "Hello world.")
	assert.Equal(t, generator.ProviderEcho, out["provider"])

	runID, ok := out["run_id"].(string)
	require.True(t, ok)

	// The run is recorded
	result, err = server.handleGetRun(ctx, callRequest(map[string]interface{}{"id": runID}))
	require.NoError(t, err)
	run := decodeResult(t, result)
	assert.Equal(t, "reformat", run["operation"])
	assert.Equal(t, "succeeded", run["status"])
	assert.Equal(t, "single_shot", run["mode"])
	assert.Contains(t, run, "finished_at")
	assert.NotContains(t, run, "error")
}

func TestReformatDocument_Chunked(t *testing.T) {
	server := setupTestServer(t)
	doc := paragraphs(40)

	result, err := server.handleReformatDocument(context.Background(), callRequest(map[string]interface{}{
		"content": doc,
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "chunked", out["mode"])
	assert.Greater(t, out["total_chunks"], 1.0)
	assert.Equal(t, out["total_chunks"], out["chunks_processed"])
	assert.Equal(t, strings.TrimSpace(doc), out["content"])
}

func TestReformatDocument_Progress(t *testing.T) {
	server := setupTestServer(t)

	var mu sync.Mutex
	var notes []map[string]any
	server.notify = func(_ context.Context, method string, params map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "notifications/progress", method)
		notes = append(notes, params)
		return nil
	}

	tests := []struct {
		name  string
		token mcp.ProgressToken
		doc   string
		want  int // notifications
	}{
		{"no token", nil, "Short text.", 0},
		{"single shot", "tok-1", "Short text.", 1},
		{"chunked", "tok-2", paragraphs(40), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes = nil
			req := callRequest(map[string]interface{}{"content": tt.doc})
			if tt.token != nil {
				req.Params.Meta = &mcp.Meta{ProgressToken: tt.token}
			}

			result, err := server.handleReformatDocument(context.Background(), req)
			require.NoError(t, err)
			out := decodeResult(t, result)

			want := tt.want
			if want < 0 {
				want = int(out["total_chunks"].(float64))
			}
			require.Len(t, notes, want)
			for i, n := range notes {
				assert.Equal(t, tt.token, n["progressToken"])
				assert.Equal(t, i+1, n["progress"])
				assert.Equal(t, want, n["total"])
			}
		})
	}
}

func TestRewriteDocument(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleRewriteDocument(ctx, callRequest(map[string]interface{}{
		"content":     "The deploy step is run by hand.",
		"instruction": "make it more formal",
		"before":      "# Release\n\n",
		"after":       "\n\n## Rollback\n",
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "The deploy step is run by hand.", out["content"])

	result, err = server.handleGetRun(ctx, callRequest(map[string]interface{}{"id": out["run_id"]}))
	require.NoError(t, err)
	run := decodeResult(t, result)
	assert.Equal(t, "rewrite", run["operation"])
	assert.Equal(t, "make it more formal", run["instruction"])
}

func TestToolParameterErrors(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	tests := []struct {
		name    string
		handler handler
		args    interface{}
		code    int
	}{
		{"reformat bad arguments", server.handleReformatDocument, "nope", ErrorCodeInvalidParams},
		{"reformat missing content", server.handleReformatDocument, map[string]interface{}{}, ErrorCodeInvalidParams},
		{"reformat unknown provider", server.handleReformatDocument, map[string]interface{}{"content": "x", "provider": "jina"}, ErrorCodeInvalidParams},
		{"rewrite missing instruction", server.handleRewriteDocument, map[string]interface{}{"content": "x"}, ErrorCodeEmptyParam},
		{"rewrite empty instruction", server.handleRewriteDocument, map[string]interface{}{"content": "x", "instruction": ""}, ErrorCodeEmptyParam},
		{"analyze empty content", server.handleAnalyzeDocument, map[string]interface{}{"content": ""}, ErrorCodeEmptyParam},
		{"get_run missing id", server.handleGetRun, map[string]interface{}{}, ErrorCodeEmptyParam},
		{"get_run unknown id", server.handleGetRun, map[string]interface{}{"id": "missing"}, ErrorCodeRunNotFound},
		{"list_runs limit too large", server.handleListRuns, map[string]interface{}{"limit": 500.0}, ErrorCodeInvalidParams},
		{"list_runs bad operation", server.handleListRuns, map[string]interface{}{"operation": "index"}, ErrorCodeInvalidParams},
		{"list_runs bad status", server.handleListRuns, map[string]interface{}{"status": "pending"}, ErrorCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{}
			req.Params.Arguments = tt.args
			_, err := tt.handler(ctx, req)
			requireMCPError(t, err, tt.code)
		})
	}
}

func TestReformatDocument_InitializationError(t *testing.T) {
	t.Setenv(generator.EnvGeminiAPIKey, "")
	server := setupTestServer(t)

	_, err := server.handleReformatDocument(context.Background(), callRequest(map[string]interface{}{
		"content":  "Some text.",
		"provider": generator.ProviderGemini,
	}))
	requireMCPError(t, err, ErrorCodeInitialization)

	// Nothing was recorded
	result, err := server.handleListRuns(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, decodeResult(t, result)["count"])
}

func TestProcess_CanceledWhileWaiting(t *testing.T) {
	server := setupTestServer(t)
	require.NoError(t, server.sem.Acquire(context.Background(), int64(server.cfg.Server.MaxConcurrent)))
	defer server.sem.Release(int64(server.cfg.Server.MaxConcurrent))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := server.handleReformatDocument(ctx, callRequest(map[string]interface{}{"content": "x"}))
	requireMCPError(t, err, ErrorCodeCanceled)
}

func TestAnalyzeDocument(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name          string
		doc           string
		includeChunks bool
		wantMode      string
		wantChunks    bool
	}{
		{"short document", "# Title\n\nA short note.", true, "single_shot", false},
		{"long document", paragraphs(40), true, "chunked", true},
		{"long document without chunk list", paragraphs(40), false, "chunked", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleAnalyzeDocument(context.Background(), callRequest(map[string]interface{}{
				"content":        tt.doc,
				"include_chunks": tt.includeChunks,
			}))
			require.NoError(t, err)
			out := decodeResult(t, result)

			plan, ok := out["plan"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.wantMode, plan["mode"])
			_, hasChunks := plan["chunks"]
			assert.Equal(t, tt.wantChunks, hasChunks)

			assert.Contains(t, out, "complexity")
			analysis, ok := out["analysis"].(map[string]interface{})
			require.True(t, ok)
			assert.NotEmpty(t, analysis["headings"])
		})
	}

	// Analysis never records a run
	result, err := server.handleListRuns(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, decodeResult(t, result)["count"])
}

func TestListRuns(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := server.handleReformatDocument(ctx, callRequest(map[string]interface{}{
			"content": fmt.Sprintf("Document %d.", i),
		}))
		require.NoError(t, err)
	}
	_, err := server.handleRewriteDocument(ctx, callRequest(map[string]interface{}{
		"content":     "Draft.",
		"instruction": "shorten",
	}))
	require.NoError(t, err)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantCount float64
		wantStats bool
	}{
		{"all", nil, 4, false},
		{"reformat only", map[string]interface{}{"operation": "reformat"}, 3, false},
		{"limit", map[string]interface{}{"limit": 2.0}, 2, false},
		{"failed", map[string]interface{}{"status": "failed"}, 0, false},
		{"with stats", map[string]interface{}{"include_stats": true}, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleListRuns(ctx, callRequest(tt.args))
			require.NoError(t, err)
			out := decodeResult(t, result)
			assert.Equal(t, tt.wantCount, out["count"])

			stats, hasStats := out["statistics"].(map[string]interface{})
			assert.Equal(t, tt.wantStats, hasStats)
			if hasStats {
				assert.Equal(t, 4.0, stats["total_runs"])
				assert.Equal(t, 4.0, stats["succeeded"])
			}
		})
	}
}

func TestGeneratorConfig(t *testing.T) {
	server := setupTestServer(t)
	server.cfg.Generator.Model = "configured-model"

	tests := []struct {
		name         string
		args         map[string]interface{}
		wantProvider string
		wantModel    string
	}{
		{"defaults", map[string]interface{}{}, generator.ProviderEcho, "configured-model"},
		{"model override", map[string]interface{}{"model": "other"}, generator.ProviderEcho, "other"},
		{"provider override drops configured model", map[string]interface{}{"provider": "openai"}, generator.ProviderOpenAI, ""},
		{"provider and model", map[string]interface{}{"provider": "gemini", "model": "gemini-2.5-pro"}, generator.ProviderGemini, "gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc, err := server.generatorConfig(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, gc.Provider)
			assert.Equal(t, tt.wantModel, gc.Model)
		})
	}
}

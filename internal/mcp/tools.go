package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docflow-mcp/internal/analyzer"
	"github.com/dshills/docflow-mcp/internal/generator"
	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/internal/processor"
	"github.com/dshills/docflow-mcp/internal/storage"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeInitialization = -32001 // Generator session could not be created
	ErrorCodeRunNotFound    = -32002 // No run with the given ID
	ErrorCodeCanceled       = -32003 // Request canceled while waiting for a slot
	ErrorCodeEmptyParam     = -32004 // Required text parameter is empty
)

// MaxListLimit bounds the limit parameter of list_runs
const MaxListLimit = 100

// handleReformatDocument handles the reformat_document tool invocation
func (s *Server) handleReformatDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing",
		})
	}

	gc, err := s.generatorConfig(args)
	if err != nil {
		return nil, err
	}

	run := &storage.Run{Operation: storage.OperationReformat, InputChars: len(content)}
	return s.process(ctx, request, gc, run, func(ctx context.Context, p *processor.Processor, progress types.ProgressFunc) outcome {
		r := p.Reformat(ctx, content, progress)
		return outcome{r.Success, r.Content, r.Error, r.ChunksProcessed, r.TotalChunks, r.Mode}
	})
}

// handleRewriteDocument handles the rewrite_document tool invocation
func (s *Server) handleRewriteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing",
		})
	}

	instruction, ok := args["instruction"].(string)
	if !ok || instruction == "" {
		return nil, newMCPError(ErrorCodeEmptyParam, "instruction parameter is required and cannot be empty", map[string]interface{}{
			"param":  "instruction",
			"reason": "missing or empty",
		})
	}

	gc, err := s.generatorConfig(args)
	if err != nil {
		return nil, err
	}

	rc := &types.RewriteContext{
		Before:            getStringDefault(args, "before", ""),
		After:             getStringDefault(args, "after", ""),
		DocumentStructure: getStringDefault(args, "document", ""),
	}

	run := &storage.Run{Operation: storage.OperationRewrite, InputChars: len(content), Instruction: instruction}
	return s.process(ctx, request, gc, run, func(ctx context.Context, p *processor.Processor, progress types.ProgressFunc) outcome {
		r := p.Rewrite(ctx, content, instruction, rc, progress)
		return outcome{r.Success, r.Content, r.Error, r.ChunksProcessed, r.TotalChunks, r.Mode}
	})
}

// outcome is the part of a reformat or rewrite result the tools report
type outcome struct {
	success   bool
	content   string
	err       string
	processed int
	total     int
	mode      types.Mode
}

// process runs one generating request: it waits for a slot, resolves the
// session, records the run and reports progress to the client
func (s *Server) process(ctx context.Context, request mcp.CallToolRequest, gc generator.Config, run *storage.Run,
	fn func(context.Context, *processor.Processor, types.ProgressFunc) outcome) (*mcp.CallToolResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, newMCPError(ErrorCodeCanceled, "request canceled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer s.sem.Release(1)

	p, session, err := s.processor(ctx, gc)
	if err != nil {
		var initErr *types.InitializationError
		if errors.As(err, &initErr) {
			return nil, newMCPError(ErrorCodeInitialization, "failed to initialize generator", map[string]interface{}{
				"provider": gc.Provider,
				"error":    err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to create processor", map[string]interface{}{
			"error": err.Error(),
		})
	}

	defer session.Release()

	run.ID = uuid.NewString()
	run.Provider = session.Provider()
	run.Model = session.Model()
	ctx = processor.WithRequestID(ctx, run.ID)

	if err := s.storage.CreateRun(ctx, run); err != nil {
		log.Warnf("record run %s: %v", run.ID, err)
	}

	o := fn(ctx, p, s.progress(ctx, request))

	run.Status = storage.RunSucceeded
	if !o.success {
		run.Status = storage.RunFailed
		run.Error = &o.err
	}
	run.Mode = string(o.mode)
	run.OutputChars = len(o.content)
	run.ChunksProcessed = o.processed
	run.TotalChunks = o.total
	if err := s.storage.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warnf("record run %s: %v", run.ID, err)
	}

	// Format response
	response := map[string]interface{}{
		"run_id":           run.ID,
		"success":          o.success,
		"mode":             o.mode,
		"chunks_processed": o.processed,
		"total_chunks":     o.total,
		"provider":         run.Provider,
		"model":            run.Model,
	}
	if o.success {
		response["content"] = o.content
	} else {
		response["error"] = o.err
	}

	result := mcp.NewToolResultText(formatJSON(response))
	result.IsError = !o.success
	return result, nil
}

// progress returns a callback that forwards chunk progress to the client,
// or nil when the request carries no progress token
func (s *Server) progress(ctx context.Context, request mcp.CallToolRequest) types.ProgressFunc {
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return nil
	}
	token := request.Params.Meta.ProgressToken
	return func(current, total int) {
		err := s.notify(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      current,
			"total":         total,
			"message":       fmt.Sprintf("processed chunk %d of %d", current, total),
		})
		if err != nil {
			log.Debugf("progress notification: %v", err)
		}
	}
}

// generatorConfig applies the optional provider and model overrides to the
// configured generator
func (s *Server) generatorConfig(args map[string]interface{}) (generator.Config, error) {
	gc := s.cfg.Generator.ToGenerator()

	if provider := getStringDefault(args, "provider", ""); provider != "" {
		switch provider {
		case generator.ProviderGemini, generator.ProviderOpenAI, generator.ProviderEcho:
		default:
			return gc, newMCPError(ErrorCodeInvalidParams, "invalid provider", map[string]interface{}{
				"param":   "provider",
				"value":   provider,
				"allowed": []string{generator.ProviderGemini, generator.ProviderOpenAI, generator.ProviderEcho},
			})
		}
		if provider != gc.Provider {
			// the configured model belongs to the configured provider
			gc.Model = ""
		}
		gc.Provider = provider
	}
	if model := getStringDefault(args, "model", ""); model != "" {
		gc.Model = model
	}
	return gc, nil
}

// handleAnalyzeDocument handles the analyze_document tool invocation
func (s *Server) handleAnalyzeDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, newMCPError(ErrorCodeEmptyParam, "content parameter is required and cannot be empty", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}
	includeChunks := getBoolDefault(args, "include_chunks", false)

	// Planning never generates, so the offline provider stands in
	p, err := processor.New(generator.NewEchoProvider(), s.cfg.Processing.ToProcessor(), processor.WithTokenCounter(s.counter))
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to create processor", map[string]interface{}{
			"error": err.Error(),
		})
	}
	plan := p.Plan(content)
	analysis := analyzer.New().Analyze(content, content)

	headings := make([]string, 0, len(analysis.HeadingHierarchy))
	for _, h := range analysis.HeadingHierarchy {
		headings = append(headings, fmt.Sprintf("%d %s", h.Level, h.Text))
	}

	planInfo := map[string]interface{}{
		"mode":         plan.Mode,
		"tokens":       plan.Tokens,
		"chars":        plan.Chars,
		"chunk_size":   plan.ChunkSize,
		"total_chunks": max(len(plan.Chunks), 1),
	}
	if includeChunks && len(plan.Chunks) > 0 {
		chunks := make([]map[string]interface{}, 0, len(plan.Chunks))
		for _, c := range plan.Chunks {
			chunks = append(chunks, map[string]interface{}{
				"ordinal":       c.Ordinal,
				"start_line":    c.StartLine,
				"end_line":      c.EndLine,
				"dominant_type": c.DominantType,
				"token_count":   c.TokenCount,
			})
		}
		planInfo["chunks"] = chunks
	}

	// Format response
	response := map[string]interface{}{
		"complexity": map[string]interface{}{
			"code_ratio":           plan.Complexity.CodeRatio,
			"math_ratio":           plan.Complexity.MathRatio,
			"table_ratio":          plan.Complexity.TableRatio,
			"list_ratio":           plan.Complexity.ListRatio,
			"technical_term_ratio": plan.Complexity.TechnicalTermRatio,
			"link_ratio":           plan.Complexity.LinkRatio,
			"score":                plan.Score,
			"dominant":             plan.Dominant,
		},
		"analysis": map[string]interface{}{
			"headings":            headings,
			"content_type_scores": analysis.ContentTypeScores,
			"dominant_type":       analysis.DominantType,
			"document_length":     analysis.DocumentLength,
			"style": map[string]interface{}{
				"avg_sentence_length": analysis.StyleMetrics.AvgSentenceLength,
				"formality_score":     analysis.StyleMetrics.FormalityScore,
				"technical_density":   analysis.StyleMetrics.TechnicalDensity,
				"readability_level":   analysis.StyleMetrics.ReadabilityLevel,
			},
		},
		"plan": planInfo,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetRun handles the get_run tool invocation
func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeEmptyParam, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	run, err := s.storage.GetRun(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeRunNotFound, "run not found", map[string]interface{}{
			"id": id,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get run", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(runInfo(run))), nil
}

// handleListRuns handles the list_runs tool invocation
func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// list_runs has no required parameters, so missing arguments are fine
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", s.cfg.Server.HistoryLimit)
	if limit < 1 || limit > MaxListLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxListLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	operation := getStringDefault(args, "operation", "")
	if operation != "" && operation != storage.OperationReformat && operation != storage.OperationRewrite {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid operation", map[string]interface{}{
			"param":   "operation",
			"value":   operation,
			"allowed": []string{storage.OperationReformat, storage.OperationRewrite},
		})
	}

	status := storage.RunStatus(getStringDefault(args, "status", ""))
	switch status {
	case "", storage.RunRunning, storage.RunSucceeded, storage.RunFailed:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid status", map[string]interface{}{
			"param":   "status",
			"value":   status,
			"allowed": []storage.RunStatus{storage.RunRunning, storage.RunSucceeded, storage.RunFailed},
		})
	}

	runs, err := s.storage.ListRuns(ctx, storage.RunFilter{Operation: operation, Status: status, Limit: limit})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		items = append(items, runInfo(run))
	}
	response := map[string]interface{}{
		"runs":  items,
		"count": len(items),
	}

	if getBoolDefault(args, "include_stats", false) {
		stats, err := s.storage.GetStats(ctx)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to get statistics", map[string]interface{}{
				"error": err.Error(),
			})
		}
		statistics := map[string]interface{}{
			"total_runs":       stats.TotalRuns,
			"running":          stats.Running,
			"succeeded":        stats.Succeeded,
			"failed":           stats.Failed,
			"chunks_processed": stats.ChunksProcessed,
			"database_size_mb": fmt.Sprintf("%.2f", stats.DatabaseSizeMB),
		}
		if !stats.LastRunAt.IsZero() {
			statistics["last_run_at"] = stats.LastRunAt.Format("2006-01-02T15:04:05Z07:00")
		}
		response["statistics"] = statistics
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// runInfo renders a run for tool responses
func runInfo(run *storage.Run) map[string]interface{} {
	info := map[string]interface{}{
		"id":               run.ID,
		"operation":        run.Operation,
		"status":           run.Status,
		"mode":             run.Mode,
		"provider":         run.Provider,
		"model":            run.Model,
		"input_chars":      run.InputChars,
		"output_chars":     run.OutputChars,
		"chunks_processed": run.ChunksProcessed,
		"total_chunks":     run.TotalChunks,
		"started_at":       run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.Instruction != "" {
		info["instruction"] = run.Instruction
	}
	if run.FinishedAt != nil {
		info["finished_at"] = run.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		info["duration_ms"] = run.Duration().Milliseconds()
	}
	if run.Error != nil {
		info["error"] = *run.Error
	}
	return info
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

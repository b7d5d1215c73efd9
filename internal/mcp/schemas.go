package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// generatorProperties are the optional per-call generator overrides shared
// by the generating tools
func generatorProperties() map[string]interface{} {
	return map[string]interface{}{
		"provider": map[string]interface{}{
			"type":        "string",
			"description": "Generation provider; defaults to the server configuration",
			"enum":        []string{"gemini", "openai", "echo"},
		},
		"model": map[string]interface{}{
			"type":        "string",
			"description": "Model name; defaults to the provider's default model",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// reformatDocumentTool returns the tool definition for reformat_document
func reformatDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reformat_document",
		Description: "Clean up the markdown formatting of a document without changing its meaning. Long or dense documents are processed in chunks and merged.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withProperties(map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Markdown document to reformat",
				},
			}, generatorProperties()),
			Required: []string{"content"},
		},
	}
}

// rewriteDocumentTool returns the tool definition for rewrite_document
func rewriteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rewrite_document",
		Description: "Rewrite a markdown region according to an instruction, keeping it consistent with the surrounding document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withProperties(map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Markdown region to rewrite",
				},
				"instruction": map[string]interface{}{
					"type":        "string",
					"description": "How to rewrite the content (e.g., 'make it more formal')",
				},
				"before": map[string]interface{}{
					"type":        "string",
					"description": "Text preceding the region in its document",
				},
				"after": map[string]interface{}{
					"type":        "string",
					"description": "Text following the region in its document",
				},
				"document": map[string]interface{}{
					"type":        "string",
					"description": "Full document the region belongs to; takes precedence over before/after for analysis",
				},
			}, generatorProperties()),
			Required: []string{"content", "instruction"},
		},
	}
}

// analyzeDocumentTool returns the tool definition for analyze_document
func analyzeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_document",
		Description: "Report the complexity, structure and processing plan of a markdown document without generating anything",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Markdown document to analyze",
				},
				"include_chunks": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include per-chunk line ranges of the plan",
					"default":     false,
				},
			},
			Required: []string{"content"},
		},
	}
}

// getRunTool returns the tool definition for get_run
func getRunTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_run",
		Description: "Look up a previous reformat or rewrite run by ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID returned by reformat_document or rewrite_document",
				},
			},
			Required: []string{"id"},
		},
	}
}

// listRunsTool returns the tool definition for list_runs
func listRunsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_runs",
		Description: "List recent reformat and rewrite runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this operation",
					"enum":        []string{"reformat", "rewrite"},
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Only runs in this status",
					"enum":        []string{"running", "succeeded", "failed"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-100)",
					"minimum":     1,
					"maximum":     100,
				},
				"include_stats": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include aggregate history statistics",
					"default":     false,
				},
			},
		},
	}
}

// Package mcp implements the Model Context Protocol (MCP) server for docflow.
//
// The MCP server exposes five tools:
//   - reformat_document: Clean up markdown formatting without changing meaning
//   - rewrite_document: Rewrite a region according to an instruction
//   - analyze_document: Report complexity, structure and the chunk plan
//   - get_run: Look up a previous run
//   - list_runs: List recent runs and history statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	docflow serve
//
// It then listens on stdin for MCP protocol messages and writes responses to stdout.
//
// # Tool: reformat_document
//
//	Request:
//	{
//	  "name": "reformat_document",
//	  "arguments": {
//	    "content": "# Title\n\nsome  text",
//	    "provider": "gemini"
//	  },
//	  "_meta": {"progressToken": "r1"}
//	}
//
//	Response:
//	{
//	  "run_id": "5b0c...",
//	  "success": true,
//	  "mode": "chunked",
//	  "chunks_processed": 4,
//	  "total_chunks": 4,
//	  "content": "# Title\n\nSome text."
//	}
//
// When the request carries a progress token, a notifications/progress
// message is sent after every processed chunk.
//
// # Tool: rewrite_document
//
// Takes content and instruction plus optional before, after and document
// text used to keep the rewrite consistent with its surroundings. A failed
// generation produces a result with isError set and the error text; the
// partial output is never returned.
//
// # Concurrency
//
// At most server.max_concurrent generating requests run at once; further
// requests wait for a slot or fail when their context is canceled.
// Generator sessions are pooled per provider, model and credential.
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "docflow": {
//	      "command": "/usr/local/bin/docflow",
//	      "args": ["serve"],
//	      "env": {
//	        "GEMINI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, processor setup)
//   - -32001: Generator could not be initialized
//   - -32002: Run not found
//   - -32003: Request canceled while waiting
//   - -32004: Required text parameter is empty
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol).
// Set log level via environment:
//
//	DOCFLOW_LOG_LEVEL=debug docflow serve
package mcp

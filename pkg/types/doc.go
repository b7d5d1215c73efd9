// Package types provides shared value types for the docflow pipeline.
//
// Every type in this package is a per-request value object: none is shared
// across concurrent requests, none carries back-references, and all are
// discarded once a request completes.
//
// # Chunks
//
// Chunk is a contiguous slice of a markdown document. Its Content is the
// authoritative span; Overlap is context copied from the previous chunk and
// is never part of the merged output:
//
//	for _, c := range chunks {
//	    fmt.Printf("chunk %d/%d (%s) lines %d-%d\n",
//	        c.Ordinal, c.TotalChunks, c.DominantType, c.StartLine, c.EndLine)
//	}
//
// ChunkContext carries the outline, neighbour previews and style signature
// used to keep each chunk consistent with the whole document.
//
// # Analysis
//
// ContentComplexity holds structural ratios (code, math, table, list,
// technical terms, links). DocumentAnalysis and SemanticContext describe
// outline, style and cross references. GenerationParameters are derived from
// all three and sent to the generative service.
//
// # Errors
//
// InitializationError and GenerationError are typed so callers can use
// errors.As to decide between fixing credentials and retrying a narrower
// selection:
//
//	var genErr *types.GenerationError
//	if errors.As(err, &genErr) {
//	    log.Printf("failed after %d of %d chunks", genErr.Chunk-1, genErr.Total)
//	}
package types

package chunker

import (
	"github.com/dshills/docflow-mcp/internal/mdline"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// DefaultPreviewChars bounds the neighbour previews of a ChunkContext
const DefaultPreviewChars = 400

// BuildContext assembles the read-only context for chunks[index]: the
// document outline, bounded previews of the neighbouring chunks' original
// text, the style signature and the chunk position.
func BuildContext(chunks []*types.Chunk, index int, outline []string, signature map[string]int, previewChars int) types.ChunkContext {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}

	ctx := types.ChunkContext{
		DocumentOutline: outline,
		StyleSignature:  signature,
		Position:        index + 1,
		TotalChunks:     len(chunks),
	}

	if index > 0 && index-1 < len(chunks) {
		ctx.PrecedingPreview = mdline.Tail(chunks[index-1].Content, previewChars)
	}
	if index+1 < len(chunks) {
		ctx.FollowingPreview = mdline.Head(chunks[index+1].Content, previewChars)
	}
	return ctx
}

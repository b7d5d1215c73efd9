// Package chunker divides markdown documents into structurally safe chunks
// for independent transformation.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.Chunk(document, 8000, 200)
//	for _, chunk := range chunks {
//	    fmt.Printf("Chunk %d/%d: lines %d-%d (%s)\n",
//	        chunk.Ordinal, chunk.TotalChunks, chunk.StartLine, chunk.EndLine, chunk.DominantType)
//	}
//
// # Boundaries
//
// A chunk never ends inside a fenced code block, a display math block or a
// group of table rows. Inside those constructs the chunk grows past the
// budget until the construct closes. Outside them the chunker backs up to
// the nearest natural break:
//   - after a heading that is not followed by another heading
//   - after the blank line that ends a paragraph
//   - before a heading or an opening fence
//   - before a list that follows non-list text
//
// # Overlap
//
// Every chunk after the first carries the tail of its predecessor in
// Overlap. The overlap is made of whole lines, takes code blocks whole or
// not at all, and stops at a heading. It is context only: joining the
// Content of every chunk reproduces the document byte for byte.
//
// # Context
//
// BuildContext produces the ChunkContext handed to the prompt builder:
//
//	ctx := chunker.BuildContext(chunks, i, outline, signature, 400)
package chunker

package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/docflow-mcp/internal/mdline"
	"github.com/dshills/docflow-mcp/pkg/types"
)

const (
	// DefaultMaxChunkChars is the default chunk budget in characters
	DefaultMaxChunkChars = 8000

	// DefaultOverlapChars is the default overlap budget in characters
	DefaultOverlapChars = 200

	// maxParagraphLine is the longest line a chunk may contain and still be
	// tagged as a plain paragraph chunk
	maxParagraphLine = 400
)

// Chunker splits markdown documents into structurally safe chunks
type Chunker struct{}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{}
}

// Chunk splits text into ordered chunks of roughly maxChunkChars characters.
// Sizes are counted in runes, not bytes.
//
// A break never falls inside a fenced code block, a display math block or a
// run of table rows; a single construct larger than the budget is kept whole.
// Concatenating the Content of the returned chunks reproduces text exactly.
// Each chunk after the first carries up to overlapChars of trailing context
// from its predecessor in Overlap. Empty text yields no chunks.
func (c *Chunker) Chunk(text string, maxChunkChars, overlapChars int) []*types.Chunk {
	if text == "" {
		return nil
	}
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	if overlapChars < 0 {
		overlapChars = 0
	}

	lines := mdline.Scan(text)

	if utf8.RuneCountInString(text) <= maxChunkChars {
		return finalize([]*types.Chunk{c.createChunk(lines, 0, len(lines)-1)})
	}

	chunks := make([]*types.Chunk, 0)
	start, size := 0, 0
	pendingOverlap := ""

	emit := func(from, to int) {
		chunk := c.createChunk(lines, from, to)
		chunk.Overlap = pendingOverlap
		chunks = append(chunks, chunk)
		pendingOverlap = intelligentOverlap(lines, from, to, overlapChars)
	}

	for i := range lines {
		size += utf8.RuneCountInString(lines[i].Text)
		if size <= maxChunkChars || i == len(lines)-1 {
			continue
		}

		// Over budget. Inside a construct we keep extending until it closes.
		if !canBreakAfter(lines, i) {
			continue
		}

		end := i
		if j := findPreferredBreak(lines, start, i); j >= 0 {
			end = j
		}
		emit(start, end)

		start = end + 1
		size = spanSize(lines, start, i)
	}

	if start < len(lines) {
		emit(start, len(lines)-1)
	}

	return finalize(chunks)
}

// createChunk builds a chunk from lines[start..end] (inclusive)
func (c *Chunker) createChunk(lines []mdline.Line, start, end int) *types.Chunk {
	var b strings.Builder
	for _, l := range lines[start : end+1] {
		b.WriteString(l.Text)
	}

	chunk := &types.Chunk{
		Content:      b.String(),
		StartLine:    start + 1,
		EndLine:      end + 1,
		DominantType: dominantType(lines[start : end+1]),
	}
	chunk.ComputeTokenCount()
	return chunk
}

// finalize assigns ordinals and the shared total once the pass is complete
func finalize(chunks []*types.Chunk) []*types.Chunk {
	for i, ch := range chunks {
		ch.Ordinal = i + 1
		ch.TotalChunks = len(chunks)
	}
	return chunks
}

// canBreakAfter reports whether a chunk may end after line i: no code or
// math block is open and line i is not followed by another table row
func canBreakAfter(lines []mdline.Line, i int) bool {
	if lines[i].OpenAfter {
		return false
	}
	if i+1 < len(lines) && lines[i].Kind == mdline.TableRow && lines[i+1].Kind == mdline.TableRow {
		return false
	}
	return true
}

// isPreferredBreak reports whether the boundary between line i and i+1 is a
// natural place to split
func isPreferredBreak(lines []mdline.Line, i int) bool {
	if i+1 >= len(lines) {
		return true
	}
	cur, next := lines[i], lines[i+1]

	switch {
	case cur.Kind == mdline.Heading && next.Kind != mdline.Heading:
		return true
	case cur.Kind == mdline.Blank && i > 0 && lines[i-1].Kind != mdline.Blank:
		return true
	case next.Kind == mdline.Heading:
		return true
	case next.Kind == mdline.Fence && next.Opens:
		return true
	case next.Kind == mdline.ListItem && cur.Kind != mdline.ListItem:
		return true
	}
	return false
}

// findPreferredBreak searches backward from line i for the nearest
// preferred break that is also permitted, never crossing the chunk start.
// It returns -1 when there is none.
func findPreferredBreak(lines []mdline.Line, start, i int) int {
	for j := i; j >= start; j-- {
		if canBreakAfter(lines, j) && isPreferredBreak(lines, j) {
			return j
		}
	}
	return -1
}

// intelligentOverlap collects whole lines backward from end until the
// overlap budget is reached. Blocks are taken whole or not at all, and the
// walk stops at a heading once more than one line has been collected.
func intelligentOverlap(lines []mdline.Line, start, end, budget int) string {
	if budget <= 0 {
		return ""
	}

	first, collected, count := end+1, 0, 0
	for k := end; k >= start && collected < budget; k-- {
		if lines[k].InBlock {
			bs := mdline.BlockStart(lines, k)
			if bs < start {
				break
			}
			blockSize := spanSize(lines, bs, k)
			if collected+blockSize > budget {
				break
			}
			collected += blockSize
			count += k - bs + 1
			first = bs
			k = bs
			continue
		}

		n := utf8.RuneCountInString(lines[k].Text)
		if collected+n > budget {
			break
		}
		collected += n
		count++
		first = k
		if lines[k].Kind == mdline.Heading && count > 1 {
			break
		}
	}

	if first > end {
		return ""
	}
	var b strings.Builder
	for _, l := range lines[first : end+1] {
		b.WriteString(l.Text)
	}
	return b.String()
}

// dominantType tags a chunk by the structures it contains
func dominantType(lines []mdline.Line) types.ContentType {
	var heading, code, list, table bool
	uniform := true
	for _, l := range lines {
		switch {
		case l.Kind == mdline.Heading:
			heading = true
		case l.Kind == mdline.Fence:
			code = true
		case l.Kind == mdline.ListItem:
			list = true
		case l.Kind == mdline.TableRow:
			table = true
		}
		if utf8.RuneCountInString(strings.TrimRight(l.Text, "\r\n")) > maxParagraphLine {
			uniform = false
		}
	}

	switch {
	case heading:
		return types.ContentHeading
	case code:
		return types.ContentCode
	case list:
		return types.ContentList
	case table:
		return types.ContentTable
	case uniform:
		return types.ContentParagraph
	default:
		return types.ContentMixed
	}
}

// spanSize counts the characters of lines[from..to]
func spanSize(lines []mdline.Line, from, to int) int {
	n := 0
	for k := from; k <= to && k < len(lines); k++ {
		n += utf8.RuneCountInString(lines[k].Text)
	}
	return n
}

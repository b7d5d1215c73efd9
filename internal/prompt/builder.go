package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/docflow-mcp/pkg/types"
)

// GuidanceThreshold is the complexity ratio above which construct specific
// rules are added to a prompt
const GuidanceThreshold = 0.05

// Request carries everything a prompt is built from. Analysis and Semantic
// are only used by rewrite prompts and may be nil.
type Request struct {
	Content     string
	Instruction string
	Context     *types.RewriteContext
	Analysis    *types.DocumentAnalysis
	Semantic    *types.SemanticContext
	Complexity  types.ContentComplexity
}

// BuildReformatPrompt builds the prompt that reformats a whole document
func BuildReformatPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a markdown formatting assistant. Clean up the formatting of the document below without changing its meaning.\n\n")
	writeFormattingRules(&b)
	writeStructureRules(&b, req.Complexity)
	writeContent(&b, req.Content)
	writeOutputRules(&b)
	return b.String()
}

// BuildChunkReformatPrompt builds the reformat prompt for one chunk of a
// larger document
func BuildChunkReformatPrompt(req Request, chunk *types.Chunk, cc types.ChunkContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a markdown formatting assistant. Clean up the formatting of part %d of %d of a larger document without changing its meaning.\n\n",
		cc.Position, cc.TotalChunks)
	writeFormattingRules(&b)
	writeStructureRules(&b, req.Complexity)
	writeChunkContext(&b, chunk, cc)
	writeContent(&b, chunk.Content)
	writeOutputRules(&b)
	return b.String()
}

// BuildRewritePrompt builds the prompt that rewrites content according to
// the user's instruction
func BuildRewritePrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a writing assistant. Rewrite the content below according to the instruction while keeping it coherent with the rest of the document.\n\n")
	writeInstruction(&b, req.Instruction)
	writeAnalysis(&b, req.Analysis)
	writeSemantic(&b, req.Semantic)
	writeStructureRules(&b, req.Complexity)
	writeSurroundings(&b, req.Context)
	writeContent(&b, req.Content)
	writeOutputRules(&b)
	return b.String()
}

// BuildChunkRewritePrompt builds the rewrite prompt for one chunk of a
// larger rewrite target
func BuildChunkRewritePrompt(req Request, chunk *types.Chunk, cc types.ChunkContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a writing assistant. Rewrite part %d of %d of the content according to the instruction while keeping it coherent with the rest of the document.\n\n",
		cc.Position, cc.TotalChunks)
	writeInstruction(&b, req.Instruction)
	writeAnalysis(&b, req.Analysis)
	writeSemantic(&b, req.Semantic)
	writeStructureRules(&b, req.Complexity)
	writeChunkContext(&b, chunk, cc)
	writeContent(&b, chunk.Content)
	writeOutputRules(&b)
	return b.String()
}

func writeInstruction(b *strings.Builder, instruction string) {
	b.WriteString("## Instruction\n")
	b.WriteString(strings.TrimSpace(instruction))
	b.WriteString("\n\n")
}

func writeFormattingRules(b *strings.Builder) {
	b.WriteString(`## Formatting rules
- Use ATX headings (#) with a consistent hierarchy; do not skip levels.
- Use "-" for unordered lists and consistent numbering for ordered lists.
- Separate blocks with exactly one blank line and remove trailing spaces.
- Fix broken emphasis, links and inline code markers.
- Do not add, remove or reorder any information.

`)
}

// writeStructureRules always states the structural rules and adds math,
// code and table rules when their ratio exceeds GuidanceThreshold
func writeStructureRules(b *strings.Builder, c types.ContentComplexity) {
	b.WriteString("## Structure rules\n")
	b.WriteString("- Keep every heading, list, table and code block; preserve their order.\n")
	b.WriteString("- Keep links and image references intact.\n")
	if c.CodeRatio > GuidanceThreshold {
		b.WriteString("- Never change the contents of fenced code blocks; keep their language tags and fences.\n")
		b.WriteString("- Keep inline code spans exactly as written.\n")
	}
	if c.MathRatio > GuidanceThreshold {
		b.WriteString("- Keep LaTeX math exactly as written, including $...$ and $$...$$ delimiters.\n")
		b.WriteString("- Do not convert formulas into code blocks or plain text.\n")
	}
	if c.TableRatio > GuidanceThreshold {
		b.WriteString("- Keep the column count of every table and its header separator row.\n")
		b.WriteString("- Do not merge or split table cells.\n")
	}
	b.WriteString("\n")
}

func writeAnalysis(b *strings.Builder, a *types.DocumentAnalysis) {
	if a == nil {
		return
	}
	b.WriteString("## Document profile\n")
	fmt.Fprintf(b, "- Type: %s\n", a.DominantType)
	fmt.Fprintf(b, "- Formality: %.0f/100\n", a.StyleMetrics.FormalityScore)
	fmt.Fprintf(b, "- Readability: %s\n", a.StyleMetrics.ReadabilityLevel)
	fmt.Fprintf(b, "- Average sentence length: %.1f words\n", a.StyleMetrics.AvgSentenceLength)
	if len(a.HeadingHierarchy) > 0 {
		b.WriteString("- Outline:\n")
		for _, h := range a.HeadingHierarchy {
			fmt.Fprintf(b, "  %s- %s\n", strings.Repeat("  ", h.Level-1), h.Text)
		}
	}
	if len(a.CrossReferences) > 0 {
		fmt.Fprintf(b, "- Sections that discuss the same topics: %s\n", strings.Join(a.CrossReferences, ", "))
	}
	b.WriteString("Match the existing style unless the instruction asks otherwise.\n\n")
}

func writeSemantic(b *strings.Builder, s *types.SemanticContext) {
	if s == nil || (len(s.Keywords) == 0 && len(s.Dependencies) == 0) {
		return
	}
	b.WriteString("## Terminology\n")
	if len(s.Keywords) > 0 {
		fmt.Fprintf(b, "- Key terms: %s\n", strings.Join(s.Keywords, ", "))
	}
	terms := make([]string, 0, len(s.TerminologyMap))
	for term := range s.TerminologyMap {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		fmt.Fprintf(b, "- %q appears as %s; use one form consistently.\n", term, strings.Join(s.TerminologyMap[term], " / "))
	}
	if len(s.RelatedSections) > 0 {
		fmt.Fprintf(b, "- Related sections: %s\n", strings.Join(s.RelatedSections, ", "))
	}
	if len(s.Dependencies) > 0 {
		fmt.Fprintf(b, "- Keep these references: %s\n", strings.Join(s.Dependencies, "; "))
	}
	b.WriteString("\n")
}

func writeSurroundings(b *strings.Builder, rc *types.RewriteContext) {
	if rc == nil || (rc.Before == "" && rc.After == "") {
		return
	}
	b.WriteString("## Surrounding text (read only, do not output)\n")
	if rc.Before != "" {
		fmt.Fprintf(b, "Before:\n%s\n\n", rc.Before)
	}
	if rc.After != "" {
		fmt.Fprintf(b, "After:\n%s\n\n", rc.After)
	}
}

func writeChunkContext(b *strings.Builder, chunk *types.Chunk, cc types.ChunkContext) {
	b.WriteString("## Context (read only, do not output)\n")
	fmt.Fprintf(b, "This is part %d of %d.", cc.Position, cc.TotalChunks)
	if !chunk.IsFirst() {
		b.WriteString(" Earlier parts have already been processed; keep terminology, tone and formatting consistent with them.")
	}
	if chunk.IsLast() && cc.TotalChunks > 1 {
		b.WriteString(" It is the last part of the document.")
	}
	b.WriteString("\n")

	if len(cc.DocumentOutline) > 0 {
		b.WriteString("Document outline:\n")
		for _, h := range cc.DocumentOutline {
			fmt.Fprintf(b, "%s\n", h)
		}
	}
	if len(cc.StyleSignature) > 0 {
		keys := make([]string, 0, len(cc.StyleSignature))
		for k := range cc.StyleSignature {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, cc.StyleSignature[k]))
		}
		fmt.Fprintf(b, "Document constructs: %s\n", strings.Join(parts, ", "))
	}
	if chunk.Overlap != "" {
		fmt.Fprintf(b, "\nEnd of the previous part (already processed, do not repeat):\n%s\n", chunk.Overlap)
	} else if cc.PrecedingPreview != "" {
		fmt.Fprintf(b, "\nPreceding text:\n%s\n", cc.PrecedingPreview)
	}
	if cc.FollowingPreview != "" {
		fmt.Fprintf(b, "\nFollowing text:\n%s\n", cc.FollowingPreview)
	}
	b.WriteString("\n")
}

func writeContent(b *strings.Builder, content string) {
	b.WriteString("## Content\n")
	b.WriteString(types.ContentStartMarker)
	b.WriteString("\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(types.ContentEndMarker)
	b.WriteString("\n\n")
}

func writeOutputRules(b *strings.Builder) {
	b.WriteString("Return only the resulting markdown. Do not include the content markers, a preamble or any explanation.\n")
}

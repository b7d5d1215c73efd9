package analyzer

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// category is a content category with its keyword vocabulary and the
// patterns that also count as matches
type category struct {
	name     string
	keywords map[string]bool
	patterns []*regexp.Regexp
}

// categories are scored in declaration order; ties go to the earlier one
var categories = []category{
	{
		name:     types.CategoryTechnical,
		keywords: complexity.TechnicalTerms,
		patterns: []*regexp.Regexp{
			regexp.MustCompile("`[^`\n]+`"),
			regexp.MustCompile(`\b[a-z]+[A-Z][A-Za-z]*\(`),
		},
	},
	{
		name: types.CategoryAcademic,
		keywords: wordSet("abstract", "analysis", "argue", "citation", "conclusion", "empirical",
			"evidence", "experiment", "findings", "hypothesis", "journal", "literature",
			"methodology", "participants", "research", "results", "sample", "scholar",
			"study", "survey", "theory", "thesis"),
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\[\d+(?:[,\-]\s*\d+)*\]`),
			regexp.MustCompile(`\bet al\.`),
			regexp.MustCompile(`\(\w+,\s*\d{4}\)`),
		},
	},
	{
		name: types.CategoryBusiness,
		keywords: wordSet("budget", "client", "customer", "customers", "deadline", "kpi",
			"market", "marketing", "meeting", "objectives", "profit", "quarter",
			"quarterly", "revenue", "roi", "sales", "stakeholder", "stakeholders",
			"strategy", "growth", "investment", "proposal"),
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`[$€£¥]\s?\d[\d,.]*\s?(?:[kKmMbB]|million|billion)?`),
			regexp.MustCompile(`\bQ[1-4]\b`),
		},
	},
	{
		name: types.CategoryCreative,
		keywords: wordSet("dream", "dreams", "heart", "imagine", "journey", "love", "moon",
			"night", "poem", "soul", "story", "sky", "whisper", "whispered", "character",
			"chapter", "felt", "tears", "smile", "shadow", "shadows"),
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`["“][^"”\n]{2,}["”]\s*(?:she|he|they|I)\s+(?:said|whispered|asked)`),
		},
	},
	{
		name: types.CategoryMathematical,
		keywords: wordSet("theorem", "lemma", "proof", "corollary", "equation", "integral",
			"derivative", "matrix", "vector", "function", "polynomial", "variable",
			"formula", "sum", "limit", "probability", "converges", "axiom"),
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\$[^$\n]+\$`),
			regexp.MustCompile(`\\(?:frac|sum|int|alpha|beta|gamma|theta|lambda|sigma|sqrt|partial|infty)\b`),
			regexp.MustCompile(`[=≤≥≠±∑∫√∞]`),
		},
	},
}

// Analyzer profiles documents. It is stateless apart from the markdown
// parser and safe for concurrent use.
type Analyzer struct {
	md goldmark.Markdown
}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{md: goldmark.New()}
}

// Analyze profiles fullDocument. When target is non-empty and occurs in
// the document, cross references and the target position are computed
// relative to it.
func (a *Analyzer) Analyze(fullDocument, target string) types.DocumentAnalysis {
	analysis := types.DocumentAnalysis{
		HeadingHierarchy:  a.Headings(fullDocument),
		ContentTypeScores: ContentTypeScores(fullDocument),
		StyleMetrics:      Style(fullDocument),
		DocumentLength:    utf8.RuneCountInString(fullDocument),
	}
	analysis.DominantType = DominantCategory(analysis.ContentTypeScores)

	if target == "" {
		analysis.CrossReferences = Dependencies(fullDocument)
		return analysis
	}

	if idx := strings.Index(fullDocument, target); idx >= 0 && len(fullDocument) > 0 {
		analysis.TargetPosition = float64(utf8.RuneCountInString(fullDocument[:idx])) / float64(analysis.DocumentLength)
	}
	analysis.CrossReferences = crossReferences(target, fullDocument)
	return analysis
}

// Headings returns the ATX heading hierarchy of document in order.
// Headings inside code blocks and setext headings are not included.
func (a *Analyzer) Headings(document string) []types.Heading {
	source := []byte(document)
	root := a.md.Parser().Parse(text.NewReader(source))

	var headings []types.Heading
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if isATX(heading, source) {
			headings = append(headings, types.Heading{
				Level: heading.Level,
				Text:  strings.TrimSpace(nodeText(heading, source)),
			})
		}
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// Outline renders the heading hierarchy as markdown heading lines
func (a *Analyzer) Outline(document string) []string {
	headings := a.Headings(document)
	out := make([]string, 0, len(headings))
	for _, h := range headings {
		out = append(out, strings.Repeat("#", h.Level)+" "+h.Text)
	}
	return out
}

// isATX reports whether the heading's source line starts with '#'
func isATX(heading *ast.Heading, source []byte) bool {
	if heading.Lines().Len() == 0 {
		// empty ATX headings ("#") have no content lines
		return true
	}
	start := heading.Lines().At(0).Start
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	line := bytes.TrimLeft(source[start:], " \t")
	return len(line) > 0 && line[0] == '#'
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// ContentTypeScores counts category keyword and pattern matches in
// document, normalized by its word count
func ContentTypeScores(document string) map[string]float64 {
	scores := make(map[string]float64, len(categories))
	words := complexity.Words(document)
	if len(words) == 0 {
		for _, c := range categories {
			scores[c.name] = 0
		}
		return scores
	}

	for _, c := range categories {
		matches := 0
		for _, w := range words {
			if c.keywords[w] {
				matches++
			}
		}
		for _, p := range c.patterns {
			matches += len(p.FindAllStringIndex(document, -1))
		}
		scores[c.name] = float64(matches) / float64(len(words))
	}
	return scores
}

// DominantCategory returns the highest scoring category, or
// CategoryGeneral when no category scored
func DominantCategory(scores map[string]float64) string {
	best, bestScore := types.CategoryGeneral, 0.0
	for _, c := range categories {
		if s := scores[c.name]; s > bestScore {
			best, bestScore = c.name, s
		}
	}
	return best
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

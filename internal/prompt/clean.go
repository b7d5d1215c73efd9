package prompt

import (
	"regexp"
	"strings"

	"github.com/dshills/docflow-mcp/pkg/types"
)

// CleaningRule rewrites a generated response. Skip, when set, disables the
// rule for a given original input.
type CleaningRule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
	Skip        func(original string) bool
}

// Apply runs the rule against response
func (r CleaningRule) Apply(response, original string) string {
	if r.Skip != nil && r.Skip(original) {
		return response
	}
	return r.Pattern.ReplaceAllString(response, r.Replacement)
}

// CleaningRules are applied in order by CleanResponse
var CleaningRules = []CleaningRule{
	{
		Name:    "content-markers",
		Pattern: regexp.MustCompile(`(?m)^[ \t]*(?:` + regexp.QuoteMeta(types.ContentStartMarker) + `|` + regexp.QuoteMeta(types.ContentEndMarker) + `)[ \t]*\r?\n?`),
	},
	{
		Name:    "preamble",
		Pattern: preamblePattern,
		Skip:    hasPreamble(preamblePattern),
	},
	{
		Name:    "preamble-cjk",
		Pattern: cjkPreamblePattern,
		Skip:    hasPreamble(cjkPreamblePattern),
	},
	{
		Name:        "markdown-fence-wrapper",
		Pattern:     regexp.MustCompile("(?s)\\A\\s*(?:```|~~~)[ \\t]*(?i:markdown|md|text|plain)?[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*(?:```|~~~)\\s*\\z"),
		Replacement: "$1",
		Skip:        startsWithFence,
	},
	{
		Name:        "quote-wrapper",
		Pattern:     regexp.MustCompile(`(?s)\A\s*(?:"""|'''|“)\s*\n?(.*?)\n?\s*(?:"""|'''|”)\s*\z`),
		Replacement: "$1",
		Skip:        startsWithQuote,
	},
}

var (
	preamblePattern    = regexp.MustCompile(`(?i)\A\s*(?:(?:sure|certainly|of course|okay)[,!.][^\n]*\n+)?(?:here(?:'s| is| are)[^\n]{0,120}?:[ \t]*\n+)?`)
	cjkPreamblePattern = regexp.MustCompile(`\A\s*(?:(?:好的|当然)[，,！!。][^\n]*\n+|以下是[^\n]{0,60}?[：:][ \t]*\n+)`)
)

// CleanResponse strips wrappers the generative service adds around its
// output: echoed content markers, conversational preambles, a fence around
// the whole response and quote wrappers. It never fails; text it cannot
// classify is returned trimmed.
func CleanResponse(response, original string) string {
	out := response
	for _, rule := range CleaningRules {
		out = rule.Apply(out, original)
	}
	return strings.TrimSpace(out)
}

// hasPreamble skips a preamble rule when the original text itself opens
// with something the rule would strip
func hasPreamble(p *regexp.Regexp) func(string) bool {
	return func(original string) bool {
		return strings.TrimSpace(p.FindString(original)) != ""
	}
}

func startsWithQuote(original string) bool {
	trimmed := strings.TrimLeft(original, " \t\r\n")
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") || strings.HasPrefix(trimmed, "“")
}

func startsWithFence(original string) bool {
	trimmed := strings.TrimLeft(original, " \t\r\n")
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

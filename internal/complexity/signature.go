package complexity

import (
	"regexp"

	"github.com/dshills/docflow-mcp/internal/mdline"
)

// Construct names used as StyleSignature keys
const (
	SigHeading    = "heading"
	SigCodeBlock  = "code_block"
	SigMathBlock  = "math_block"
	SigTable      = "table"
	SigListItem   = "list_item"
	SigLink       = "link"
	SigEmphasis   = "emphasis"
	SigInlineCode = "inline_code"
	SigBlockquote = "blockquote"
)

var (
	boldPattern       = regexp.MustCompile(`\*\*[^*\n]+\*\*|__[^_\n]+__`)
	italicPattern     = regexp.MustCompile(`(?:^|[^*])\*[^*\s][^*\n]*\*(?:[^*]|$)`)
	inlineCodePattern = regexp.MustCompile("`[^`\n]+`")
)

// StyleSignature counts the markdown constructs used in text. Prompts use
// it to ask the service to keep the document's formatting conventions.
func StyleSignature(text string) map[string]int {
	sig := map[string]int{}
	lines := mdline.Scan(text)
	prevTable := false

	for _, l := range lines {
		if l.Opens {
			if l.Kind == mdline.MathFence {
				sig[SigMathBlock]++
			} else {
				sig[SigCodeBlock]++
			}
		}
		if l.InBlock {
			prevTable = false
			continue
		}

		switch l.Kind {
		case mdline.Heading:
			sig[SigHeading]++
		case mdline.ListItem:
			sig[SigListItem]++
		case mdline.TableRow:
			if !prevTable {
				sig[SigTable]++
			}
		}
		prevTable = l.Kind == mdline.TableRow

		if len(l.Text) > 0 && l.Text[0] == '>' {
			sig[SigBlockquote]++
		}
		sig[SigLink] += len(linkPattern.FindAllString(l.Text, -1))
		sig[SigEmphasis] += len(boldPattern.FindAllString(l.Text, -1)) + len(italicPattern.FindAllString(l.Text, -1))
		sig[SigInlineCode] += len(inlineCodePattern.FindAllString(l.Text, -1))
	}

	for k, v := range sig {
		if v == 0 {
			delete(sig, k)
		}
	}
	return sig
}

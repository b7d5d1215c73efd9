package analyzer

import (
	"github.com/dshills/docflow-mcp/internal/mdline"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// OptimalContextWindow fits the surrounding context of content into
// tokenBudget. The budget left after content is split between before and
// after in proportion to their sizes. before is trimmed from its start and
// after from its end, each at the line boundary nearest its limit, so the
// text closest to content survives.
func (a *Analyzer) OptimalContextWindow(content, before, after string, tokenBudget int) (string, string) {
	available := tokenBudget - types.EstimateTokens(content)
	if available <= 0 {
		return "", ""
	}

	beforeTokens := types.EstimateTokens(before)
	afterTokens := types.EstimateTokens(after)
	if beforeTokens+afterTokens <= available {
		return before, after
	}

	beforeShare := available * beforeTokens / (beforeTokens + afterTokens)
	afterShare := available - beforeShare

	return mdline.Tail(before, types.TokensToChars(beforeShare)),
		mdline.Head(after, types.TokensToChars(afterShare))
}

package prompt

import (
	"math"
	"strings"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// Base generation parameters and their safe ranges
const (
	BaseTemperature  = 0.7
	BaseTopK         = 40
	BaseTopP         = 0.95
	BaseOutputTokens = 8192

	MinTemperature  = 0.1
	MaxTemperature  = 1.0
	MinTopK         = 1
	MaxTopK         = 100
	MinTopP         = 0.5
	MaxTopP         = 1.0
	MinOutputTokens = 1024
	MaxOutputTokens = 32768

	// HighFormality is the formality score above which a source is treated
	// as already formal
	HighFormality = 90.0

	// heavyRatio marks content dominated by code or math
	heavyRatio = 0.3
)

var (
	rewriteWords   = []string{"rewrite", "rephrase", "paraphrase", "reimagine", "creative", "creatively", "casual", "vivid", "改写", "润色"}
	precisionWords = []string{"formal", "formalize", "precise", "accurate", "concise", "fix", "correct", "professional", "正式", "严谨"}
)

// OptimizeGenerationParameters derives rewrite parameters from the
// document profile, the content complexity and the instruction text
func OptimizeGenerationParameters(analysis types.DocumentAnalysis, c types.ContentComplexity, instruction string) types.GenerationParameters {
	temperature := BaseTemperature
	topK := BaseTopK
	topP := BaseTopP

	switch {
	case analysis.DominantType == types.CategoryTechnical || c.CodeRatio > heavyRatio:
		temperature -= 0.2
		topK, topP = 20, 0.8
	case analysis.DominantType == types.CategoryMathematical || c.MathRatio > heavyRatio:
		temperature -= 0.15
		topK, topP = 20, 0.8
	case analysis.DominantType == types.CategoryCreative:
		temperature += 0.2
		topK, topP = 64, 0.98
	}

	words := instructionWords(instruction)
	if containsAny(words, instruction, rewriteWords) {
		temperature += 0.1
	}
	if containsAny(words, instruction, precisionWords) {
		temperature -= 0.1
	}
	if analysis.StyleMetrics.FormalityScore >= HighFormality {
		temperature -= 0.15
	}

	return types.GenerationParameters{
		Temperature:        clampFloat(round2(temperature), MinTemperature, MaxTemperature),
		TopK:               clampInt(topK, MinTopK, MaxTopK),
		TopP:               clampFloat(topP, MinTopP, MaxTopP),
		OutputTokenCeiling: OutputCeiling(c),
	}
}

// ReformatGenerationParameters returns the low temperature parameters used
// for reformatting
func ReformatGenerationParameters(c types.ContentComplexity) types.GenerationParameters {
	return types.GenerationParameters{
		Temperature:        0.1,
		TopK:               20,
		TopP:               0.8,
		OutputTokenCeiling: OutputCeiling(c),
	}
}

// OutputCeiling scales BaseOutputTokens by the code, math and table share
// of the content, within [MinOutputTokens, MaxOutputTokens]
func OutputCeiling(c types.ContentComplexity) int {
	factor := 1 + c.CodeRatio + 0.8*c.MathRatio + 0.5*c.TableRatio
	return clampInt(int(math.Round(BaseOutputTokens*factor)), MinOutputTokens, MaxOutputTokens)
}

func instructionWords(instruction string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range complexity.Words(instruction) {
		words[w] = true
	}
	return words
}

// containsAny matches ASCII vocabulary as whole words and other scripts as
// substrings, since CJK text has no word separators
func containsAny(words map[string]bool, instruction string, vocabulary []string) bool {
	for _, v := range vocabulary {
		if isASCII(v) {
			if words[v] {
				return true
			}
			continue
		}
		if strings.Contains(instruction, v) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

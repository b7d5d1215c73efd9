package types

import (
	"math"
	"unicode/utf8"
)

// CharsPerToken is the empirical characters-per-token ratio used for mixed
// language text (English averages ~4, CJK considerably less)
const CharsPerToken = 3.5

// EstimateTokens estimates the number of tokens in text as
// ceil(characters / CharsPerToken)
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / CharsPerToken))
}

// TokensToChars converts a token budget back into an approximate character budget
func TokensToChars(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return int(float64(tokens) * CharsPerToken)
}

package analyzer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// LongWordRunes is the length at which a word counts as long for readability
const LongWordRunes = 7

var formalMarkers = wordSet(
	"accordingly", "additionally", "consequently", "furthermore", "hence",
	"hereby", "however", "moreover", "nevertheless", "nonetheless",
	"notwithstanding", "regarding", "subsequently", "therefore", "thus",
	"whereas", "wherein", "shall", "pursuant", "respectively",
)

var informalMarkers = wordSet(
	"awesome", "basically", "btw", "cool", "gonna", "gotta", "guys", "hey",
	"kinda", "lol", "ok", "okay", "pretty", "really", "stuff", "super",
	"totally", "wanna", "yeah", "yep",
)

// Style computes the style metrics of document
func Style(document string) types.StyleMetrics {
	words := complexity.Words(document)
	sentences := countSentences(document)
	if sentences == 0 && len(words) > 0 {
		sentences = 1
	}

	metrics := types.StyleMetrics{
		FormalityScore:   formality(words),
		ReadabilityLevel: types.ReadabilityElementary,
	}
	if len(words) == 0 {
		return metrics
	}

	metrics.AvgSentenceLength = float64(len(words)) / float64(sentences)

	technical, long := 0, 0
	for _, w := range words {
		if complexity.TechnicalTerms[w] {
			technical++
		}
		if utf8.RuneCountInString(w) >= LongWordRunes {
			long++
		}
	}
	metrics.TechnicalDensity = float64(technical) / float64(len(words))
	metrics.ReadabilityLevel = readability(metrics.AvgSentenceLength, float64(long)/float64(len(words)))
	return metrics
}

// countSentences counts non-empty runs of text terminated by . ! ? or
// their CJK counterparts
func countSentences(document string) int {
	parts := strings.FieldsFunc(document, func(r rune) bool {
		switch r {
		case '.', '!', '?', '。', '！', '？':
			return true
		}
		return false
	})
	n := 0
	for _, p := range parts {
		if len(complexity.Words(p)) > 0 {
			n++
		}
	}
	return n
}

// formality maps formal and informal marker counts onto 0-100 with 50 as
// neutral. Contractions count as informal.
func formality(words []string) float64 {
	formal, informal := 0, 0
	for _, w := range words {
		switch {
		case formalMarkers[w]:
			formal++
		case informalMarkers[w], strings.Contains(w, "'"):
			informal++
		}
	}
	if formal+informal == 0 {
		return 50
	}
	return 50 + 50*float64(formal-informal)/float64(formal+informal)
}

// readability buckets a fog-style index built from sentence length and
// the share of long words
func readability(avgSentenceLength, longWordFraction float64) string {
	index := 0.4 * (avgSentenceLength + 100*longWordFraction)
	index = math.Round(index*100) / 100
	switch {
	case index < 6:
		return types.ReadabilityElementary
	case index < 9:
		return types.ReadabilityMiddleSchool
	case index < 12:
		return types.ReadabilityHighSchool
	case index < 16:
		return types.ReadabilityCollege
	default:
		return types.ReadabilityGraduate
	}
}

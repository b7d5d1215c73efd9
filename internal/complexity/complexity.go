package complexity

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/dshills/docflow-mcp/internal/mdline"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// Weights of the complexity score. Empirical; treat as tunable.
const (
	WeightCode      = 0.30
	WeightMath      = 0.25
	WeightTable     = 0.20
	WeightList      = 0.10
	WeightTechnical = 0.15

	// DominanceFloor is the minimum ratio a dimension needs before it can
	// shift chunking thresholds
	DominanceFloor = 0.1

	// MinChunkChars is the floor applied by AdaptiveChunkSize
	MinChunkChars = 1000
)

// Dimension names a single complexity dimension
type Dimension string

const (
	DimensionNone  Dimension = "none"
	DimensionCode  Dimension = "code"
	DimensionMath  Dimension = "math"
	DimensionTable Dimension = "table"
	DimensionList  Dimension = "list"
)

var (
	inlineMathPattern = regexp.MustCompile(`\$[^\s$]\$|\$[^\s$][^$\n]*[^\s$]\$|\\\(.+?\\\)`)
	linkPattern       = regexp.MustCompile(`\[[^\]\n]+\]\([^)\n]+\)|https?://[^\s)>\]]+`)
)

// TechnicalTerms is the vocabulary counted as technical terminology
var TechnicalTerms = map[string]bool{
	"algorithm": true, "api": true, "architecture": true, "async": true, "backend": true,
	"binary": true, "boolean": true, "buffer": true, "cache": true, "class": true,
	"cli": true, "client": true, "cluster": true, "compile": true, "compiler": true,
	"concurrency": true, "config": true, "configuration": true, "container": true, "cpu": true,
	"database": true, "debug": true, "dependency": true, "deploy": true, "deployment": true,
	"docker": true, "endpoint": true, "framework": true, "frontend": true, "function": true,
	"goroutine": true, "gpu": true, "hash": true, "http": true, "https": true,
	"implementation": true, "index": true, "integer": true, "interface": true, "json": true,
	"kernel": true, "kubernetes": true, "latency": true, "library": true, "linux": true,
	"method": true, "middleware": true, "module": true, "mutex": true, "namespace": true,
	"parameter": true, "parser": true, "pointer": true, "protocol": true, "query": true,
	"queue": true, "recursion": true, "refactor": true, "regex": true, "repository": true,
	"request": true, "response": true, "runtime": true, "schema": true, "sdk": true,
	"server": true, "sql": true, "stack": true, "string": true, "struct": true,
	"syntax": true, "thread": true, "throughput": true, "token": true, "tuple": true,
	"type": true, "variable": true, "vector": true, "yaml": true,
}

// Analyze computes the structural ratios of text. It is a pure function:
// identical input always yields identical output.
func Analyze(text string) types.ContentComplexity {
	lines := mdline.Scan(text)
	if len(lines) == 0 {
		return types.ContentComplexity{}
	}

	var code, mathLines, table, list, link int
	var words, technical int
	inMathBlock := false

	for _, l := range lines {
		if l.Opens {
			inMathBlock = l.Kind == mdline.MathFence
		}
		if l.InBlock {
			if inMathBlock {
				mathLines++
			} else {
				code++
			}
			continue
		}

		switch l.Kind {
		case mdline.TableRow:
			table++
		case mdline.ListItem:
			list++
		}
		if inlineMathPattern.MatchString(l.Text) {
			mathLines++
		}
		if linkPattern.MatchString(l.Text) {
			link++
		}
		for _, w := range Words(l.Text) {
			words++
			if TechnicalTerms[w] {
				technical++
			}
		}
	}

	total := float64(len(lines))
	c := types.ContentComplexity{
		CodeRatio:  float64(code) / total,
		MathRatio:  float64(mathLines) / total,
		TableRatio: float64(table) / total,
		ListRatio:  float64(list) / total,
		LinkRatio:  float64(link) / total,
	}
	if words > 0 {
		c.TechnicalTermRatio = float64(technical) / float64(words)
	}
	return c
}

// Score returns the weighted complexity score of c
func Score(c types.ContentComplexity) float64 {
	return c.CodeRatio*WeightCode +
		c.MathRatio*WeightMath +
		c.TableRatio*WeightTable +
		c.ListRatio*WeightList +
		c.TechnicalTermRatio*WeightTechnical
}

// Dominant returns the strongest structural dimension of c, or
// DimensionNone when no dimension reaches DominanceFloor. Ties resolve in
// the order code, math, table, list.
func Dominant(c types.ContentComplexity) Dimension {
	best, bestRatio := DimensionNone, 0.0
	for _, d := range []struct {
		dim   Dimension
		ratio float64
	}{
		{DimensionCode, c.CodeRatio},
		{DimensionMath, c.MathRatio},
		{DimensionTable, c.TableRatio},
		{DimensionList, c.ListRatio},
	} {
		if d.ratio > bestRatio {
			best, bestRatio = d.dim, d.ratio
		}
	}
	if bestRatio < DominanceFloor {
		return DimensionNone
	}
	return best
}

// ThresholdScale returns the factor applied to size thresholds. Code and
// math heavy content chunks earlier; table heavy content can chunk later.
func ThresholdScale(c types.ContentComplexity) float64 {
	switch Dominant(c) {
	case DimensionCode:
		return 0.7
	case DimensionMath:
		return 0.75
	case DimensionTable:
		return 1.3
	default:
		return 1.0
	}
}

// AdaptiveChunkSize scales a base chunk budget (characters) to the content
func AdaptiveChunkSize(c types.ContentComplexity, base int) int {
	size := int(math.Round(float64(base) * ThresholdScale(c)))
	if size < MinChunkChars {
		size = MinChunkChars
	}
	return size
}

// Words splits text into lowercase words made of letters, digits and
// inner apostrophes or hyphens
func Words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Package complexity measures how structurally dense a markdown text is.
//
// Analyze scans a text once and returns the fraction of its lines occupied
// by fenced code, math, tables, lists and links, plus the share of
// technical vocabulary among its words:
//
//	c := complexity.Analyze(text)
//	fmt.Printf("code=%.2f math=%.2f score=%.2f\n",
//	    c.CodeRatio, c.MathRatio, complexity.Score(c))
//
// Score, Dominant and ThresholdScale turn the ratios into chunking
// decisions: code and math heavy documents chunk earlier and in smaller
// pieces, table heavy documents later.
//
// Token estimation defaults to ceil(chars/3.5). NewCounter("tiktoken")
// returns an exact BPE counter for deployments that want precise budgets.
package complexity

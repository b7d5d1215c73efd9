package processor

import (
	"errors"

	"github.com/dshills/docflow-mcp/internal/chunker"
)

// Default thresholds. Empirical; treat as tunable.
const (
	DefaultTokenCeiling        = 6000
	DefaultCharCeiling         = 20000
	DefaultComplexityThreshold = 0.35
	DefaultReformatMergeWindow = 10
	DefaultRewriteMergeWindow  = 5
	DefaultContextTokenBudget  = 2000
)

// Config holds the thresholds that drive chunking and merging
type Config struct {
	// A document is chunked when its token count, character count or
	// complexity score exceeds these values, each scaled by
	// complexity.ThresholdScale
	TokenCeiling        int
	CharCeiling         int
	ComplexityThreshold float64

	MaxChunkChars int
	OverlapChars  int
	PreviewChars  int

	ReformatMergeWindow int
	RewriteMergeWindow  int

	// ContextTokenBudget bounds the prompt share of a rewrite request's
	// target plus its surrounding text
	ContextTokenBudget int
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		TokenCeiling:        DefaultTokenCeiling,
		CharCeiling:         DefaultCharCeiling,
		ComplexityThreshold: DefaultComplexityThreshold,
		MaxChunkChars:       chunker.DefaultMaxChunkChars,
		OverlapChars:        chunker.DefaultOverlapChars,
		PreviewChars:        chunker.DefaultPreviewChars,
		ReformatMergeWindow: DefaultReformatMergeWindow,
		RewriteMergeWindow:  DefaultRewriteMergeWindow,
		ContextTokenBudget:  DefaultContextTokenBudget,
	}
}

// Validate checks that every threshold is usable
func (c Config) Validate() error {
	var errs []error
	if c.TokenCeiling <= 0 {
		errs = append(errs, errors.New("token ceiling must be positive"))
	}
	if c.CharCeiling <= 0 {
		errs = append(errs, errors.New("char ceiling must be positive"))
	}
	if c.ComplexityThreshold <= 0 || c.ComplexityThreshold > 1 {
		errs = append(errs, errors.New("complexity threshold must be in (0, 1]"))
	}
	if c.MaxChunkChars <= 0 {
		errs = append(errs, errors.New("max chunk chars must be positive"))
	}
	if c.OverlapChars < 0 || c.OverlapChars >= c.MaxChunkChars {
		errs = append(errs, errors.New("overlap chars must be in [0, max chunk chars)"))
	}
	if c.PreviewChars < 0 {
		errs = append(errs, errors.New("preview chars must not be negative"))
	}
	if c.ReformatMergeWindow < 0 || c.RewriteMergeWindow < 0 {
		errs = append(errs, errors.New("merge windows must not be negative"))
	}
	if c.ContextTokenBudget < 0 {
		errs = append(errs, errors.New("context token budget must not be negative"))
	}
	return errors.Join(errs...)
}

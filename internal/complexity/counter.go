package complexity

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/dshills/docflow-mcp/pkg/types"
)

// Token counter names accepted by NewCounter
const (
	CounterHeuristic = "heuristic"
	CounterTiktoken  = "tiktoken"
)

// TokenCounter estimates how many tokens a text occupies
type TokenCounter interface {
	Count(text string) int
	Name() string
}

// HeuristicCounter uses the fixed characters-per-token ratio
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int { return types.EstimateTokens(text) }
func (HeuristicCounter) Name() string          { return CounterHeuristic }

// TiktokenCounter counts tokens with the cl100k_base BPE vocabulary
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter creates a tiktoken-backed counter
func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base: %w", err)
	}
	return &TiktokenCounter{codec: codec}, nil
}

// Count returns the exact BPE token count, falling back to the heuristic
// if the text cannot be encoded
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return types.EstimateTokens(text)
	}
	return len(ids)
}

func (c *TiktokenCounter) Name() string { return CounterTiktoken }

// NewCounter returns the counter registered under name
func NewCounter(name string) (TokenCounter, error) {
	switch name {
	case "", CounterHeuristic:
		return HeuristicCounter{}, nil
	case CounterTiktoken:
		c, err := NewTiktokenCounter()
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown token counter %q", name)
	}
}

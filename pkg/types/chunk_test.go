package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk_Validate(t *testing.T) {
	valid := func() Chunk {
		return Chunk{
			Content:      "# Title\n",
			Ordinal:      1,
			TotalChunks:  2,
			StartLine:    1,
			EndLine:      1,
			DominantType: ContentHeading,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Chunk)
		wantErr bool
	}{
		{"valid", func(c *Chunk) {}, false},
		{"zero start line", func(c *Chunk) { c.StartLine = 0 }, true},
		{"start after end", func(c *Chunk) { c.StartLine = 3; c.EndLine = 2 }, true},
		{"unknown type", func(c *Chunk) { c.DominantType = "prose" }, true},
		{"ordinal zero", func(c *Chunk) { c.Ordinal = 0 }, true},
		{"ordinal past total", func(c *Chunk) { c.Ordinal = 3 }, true},
		{"total not assigned yet", func(c *Chunk) { c.TotalChunks = 0; c.Ordinal = 5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChunk_Position(t *testing.T) {
	first := &Chunk{Ordinal: 1, TotalChunks: 3}
	last := &Chunk{Ordinal: 3, TotalChunks: 3}
	only := &Chunk{Ordinal: 1, TotalChunks: 1}

	assert.True(t, first.IsFirst())
	assert.False(t, first.IsLast())
	assert.False(t, last.IsFirst())
	assert.True(t, last.IsLast())
	assert.True(t, only.IsFirst() && only.IsLast())
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcdefg", 2},
		{"abcdefgh", 3},
	}
	for _, tt := range tests {
		c := &Chunk{Content: tt.text}
		assert.Equal(t, tt.want, c.ComputeTokenCount(), "%q", tt.text)
		assert.Equal(t, tt.want, c.TokenCount)
	}
}

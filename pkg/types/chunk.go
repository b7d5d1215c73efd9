package types

import (
	"errors"
)

// ContentType represents the dominant structural category of a chunk
type ContentType string

const (
	ContentHeading   ContentType = "heading"
	ContentParagraph ContentType = "paragraph"
	ContentCode      ContentType = "code"
	ContentList      ContentType = "list"
	ContentTable     ContentType = "table"
	ContentMixed     ContentType = "mixed"
)

// Chunk represents a contiguous, structurally safe slice of a document
// prepared for independent transformation
type Chunk struct {
	// Content is the authoritative span. Concatenating the Content of every
	// chunk of a document reproduces the document exactly.
	Content string

	// Overlap is context copied from the tail of the previous chunk. It is
	// never part of the authoritative span.
	Overlap string

	// Position
	Ordinal     int // 1-based
	TotalChunks int

	// Location (1-based, inclusive)
	StartLine int
	EndLine   int

	// Metadata
	DominantType ContentType
	TokenCount   int
}

// ValidateContent checks if the chunk content is valid
func (c *Chunk) ValidateContent() error {
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	return nil
}

// ValidateContentType checks if the dominant type is valid
func (c *Chunk) ValidateContentType() error {
	switch c.DominantType {
	case ContentHeading, ContentParagraph, ContentCode, ContentList, ContentTable, ContentMixed:
		return nil
	default:
		return errors.New("invalid content type")
	}
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if err := c.ValidateContent(); err != nil {
		return err
	}

	if err := c.ValidateContentType(); err != nil {
		return err
	}

	if c.Ordinal < 1 || (c.TotalChunks > 0 && c.Ordinal > c.TotalChunks) {
		return errors.New("ordinal out of range")
	}

	return nil
}

// ComputeTokenCount estimates the number of tokens in the authoritative span
func (c *Chunk) ComputeTokenCount() int {
	c.TokenCount = EstimateTokens(c.Content)
	return c.TokenCount
}

// IsFirst reports whether the chunk opens the document
func (c *Chunk) IsFirst() bool {
	return c.Ordinal == 1
}

// IsLast reports whether the chunk closes the document
func (c *Chunk) IsLast() bool {
	return c.Ordinal == c.TotalChunks
}

// ChunkContext is the cross-chunk context handed to the prompt builder for
// one chunk. It is built immediately before prompt assembly and is
// read-only afterwards.
type ChunkContext struct {
	DocumentOutline  []string
	PrecedingPreview string
	FollowingPreview string
	StyleSignature   map[string]int
	Position         int // 1-based
	TotalChunks      int
}

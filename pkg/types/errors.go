package types

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrEmptyInstruction  = errors.New("instruction cannot be empty")
	ErrCanceled          = errors.New("request canceled")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEmptyResponse     = errors.New("generation returned empty text")
)

// InitializationError reports that the generative service handle could not
// be constructed. No chunking is attempted when it occurs.
type InitializationError struct {
	Provider string
	Err      error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize %s generator: %v", e.Provider, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// GenerationError reports a failed call to the generative service. Chunk is
// the 1-based chunk that failed and Total the number of chunks; both are 1
// for single-shot requests.
type GenerationError struct {
	Chunk int
	Total int
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Total > 1 {
		return fmt.Sprintf("generation failed at chunk %d/%d (%d completed): %v", e.Chunk, e.Total, e.Chunk-1, e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dshills/docflow-mcp/pkg/types"
)

// Common errors
var (
	ErrEmptyPrompt         = errors.New("prompt cannot be empty")
	ErrProviderFailed      = errors.New("generation provider failed")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrNoProviderEnabled   = errors.New("no generation provider configured")
	ErrClosed              = errors.New("generator is closed")
)

// Generator is the outbound interface to a generative text service
type Generator interface {
	// Generate returns the text produced for prompt under params
	Generate(ctx context.Context, prompt string, params types.GenerationParameters) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the generator
	Close() error
}

// ComputeHash computes the SHA-256 hex digest of the given parts joined by
// a separator that cannot occur in provider names
func ComputeHash(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

// ValidatePrompt validates a generation prompt
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

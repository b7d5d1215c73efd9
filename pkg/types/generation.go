package types

import "fmt"

// Markers delimiting the content to transform inside a prompt. Providers
// that need to locate the payload (the echo provider) and the response
// cleaner rely on them.
const (
	ContentStartMarker = "<<<CONTENT_START>>>"
	ContentEndMarker   = "<<<CONTENT_END>>>"
)

// GenerationParameters are the sampling knobs sent to the generative service.
// Values are derived once per request and never mutated afterwards.
type GenerationParameters struct {
	Temperature        float64
	TopK               int
	TopP               float64
	OutputTokenCeiling int
}

// String renders the parameters compactly for logs and cache keys
func (p GenerationParameters) String() string {
	return fmt.Sprintf("t=%.2f k=%d p=%.2f max=%d", p.Temperature, p.TopK, p.TopP, p.OutputTokenCeiling)
}

// Package generator talks to generative text services.
//
// Three providers are available: Gemini through google.golang.org/genai,
// OpenAI (and compatible endpoints) through github.com/openai/openai-go,
// and an offline echo provider that returns the marked content of a prompt
// unchanged. Provider calls are retried with exponential backoff.
//
// Sessions bind an initialized provider to a configuration and are reused
// through a SessionPool.
package generator

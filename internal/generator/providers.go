package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"google.golang.org/genai"

	"github.com/dshills/docflow-mcp/pkg/types"
)

// Provider configuration
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"

	// Default models
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	EchoModel          = "echo"
)

// geminiModels is the part of the genai client the Gemini provider uses
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements Generator using the Gemini API
type GeminiProvider struct {
	model  string
	models geminiModels
	retry  RetryConfig
}

// NewGeminiProvider creates a new Gemini generator
func NewGeminiProvider(ctx context.Context, apiKey, model string, retry RetryConfig) (*GeminiProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvGeminiAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvGeminiAPIKey)
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if client.Models == nil {
		return nil, fmt.Errorf("gemini client is missing the Models service")
	}

	return &GeminiProvider{model: model, models: client.Models, retry: retry}, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, params types.GenerationParameters) (string, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(params.Temperature)),
		TopP:        genai.Ptr(float32(params.TopP)),
	}
	if params.TopK > 0 {
		config.TopK = genai.Ptr(float32(params.TopK))
	}
	if params.OutputTokenCeiling > 0 {
		config.MaxOutputTokens = int32(params.OutputTokenCeiling)
	}

	text, err := retryWithBackoff(ctx, g.retry, "gemini generate", func() (string, error) {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			return "", fmt.Errorf("api call: %w", err)
		}
		return geminiText(resp)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return text, nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", types.ErrEmptyResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", types.ErrEmptyResponse
	}
	return b.String(), nil
}

func (g *GeminiProvider) Provider() string {
	return ProviderGemini
}

func (g *GeminiProvider) Model() string {
	return g.model
}

// Close is a no-op; the genai client holds no closable resources
func (g *GeminiProvider) Close() error {
	return nil
}

// OpenAIProvider implements Generator using the OpenAI chat completions API
// or any service compatible with it
type OpenAIProvider struct {
	model  string
	client openai.Client
	retry  RetryConfig
}

// NewOpenAIProvider creates a new OpenAI generator. baseURL selects an
// OpenAI compatible endpoint and may be empty.
func NewOpenAIProvider(apiKey, model, baseURL string, retry RetryConfig) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	// retries are handled by retryWithBackoff
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		model:  model,
		client: openai.NewClient(opts...),
		retry:  retry,
	}, nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, params types.GenerationParameters) (string, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}

	// TopK has no chat completions equivalent
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(params.Temperature),
		TopP:        openai.Float(params.TopP),
	}
	if params.OutputTokenCeiling > 0 {
		req.MaxCompletionTokens = openai.Int(int64(params.OutputTokenCeiling))
	}

	text, err := retryWithBackoff(ctx, o.retry, "openai generate", func() (string, error) {
		resp, err := o.client.Chat.Completions.New(ctx, req)
		if err != nil {
			err = fmt.Errorf("api call: %w", err)
			if !retryableStatus(err) {
				return "", permanent(err)
			}
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", types.ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return text, nil
}

// retryableStatus reports whether an OpenAI API error may succeed on retry.
// Client errors other than rate limiting are permanent.
func retryableStatus(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return true
	}
	code := apiErr.StatusCode
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Model() string {
	return o.model
}

// Close is a no-op; the client shares the default HTTP transport
func (o *OpenAIProvider) Close() error {
	return nil
}

// EchoProvider returns the content enclosed in the prompt's content
// markers unchanged. It needs no credentials and is used for offline runs
// and tests.
type EchoProvider struct {
	closed atomic.Bool
}

// NewEchoProvider creates a new echo generator
func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

func (e *EchoProvider) Generate(ctx context.Context, prompt string, _ types.GenerationParameters) (string, error) {
	if e.closed.Load() {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}
	return ExtractContent(prompt), nil
}

func (e *EchoProvider) Provider() string {
	return ProviderEcho
}

func (e *EchoProvider) Model() string {
	return EchoModel
}

func (e *EchoProvider) Close() error {
	e.closed.Store(true)
	return nil
}

// ExtractContent returns the text between the last pair of content markers
// in prompt, or prompt itself when it has none
func ExtractContent(prompt string) string {
	start := strings.LastIndex(prompt, types.ContentStartMarker)
	if start < 0 {
		return prompt
	}
	body := prompt[start+len(types.ContentStartMarker):]
	end := strings.Index(body, types.ContentEndMarker)
	if end < 0 {
		return prompt
	}
	body = strings.TrimPrefix(body[:end], "\n")
	return body
}

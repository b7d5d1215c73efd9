package generator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docflow-mcp/pkg/types"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name           string
		provider       string
		geminiKey      string
		openaiKey      string
		expectedResult string
	}{
		{
			name:           "explicit gemini provider",
			provider:       "gemini",
			expectedResult: ProviderGemini,
		},
		{
			name:           "explicit provider is case insensitive",
			provider:       "OpenAI",
			expectedResult: ProviderOpenAI,
		},
		{
			name:           "gemini key present",
			geminiKey:      "test-key",
			expectedResult: ProviderGemini,
		},
		{
			name:           "openai key present",
			openaiKey:      "test-key",
			expectedResult: ProviderOpenAI,
		},
		{
			name:           "both keys present prefers gemini",
			geminiKey:      "test-key",
			openaiKey:      "test-key",
			expectedResult: ProviderGemini,
		},
		{
			name:           "no keys falls back to echo",
			expectedResult: ProviderEcho,
		},
		{
			name:           "explicit provider overrides keys",
			provider:       "echo",
			geminiKey:      "test-key",
			expectedResult: ProviderEcho,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvProvider, tt.provider)
			t.Setenv(EnvGeminiAPIKey, tt.geminiKey)
			t.Setenv(EnvOpenAIAPIKey, tt.openaiKey)

			assert.Equal(t, tt.expectedResult, DetectProvider())
		})
	}
}

func TestNew(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")

	tests := []struct {
		name         string
		cfg          Config
		wantProvider string
		wantModel    string
		wantErr      error
	}{
		{
			name:         "echo",
			cfg:          Config{Provider: "echo"},
			wantProvider: ProviderEcho,
			wantModel:    EchoModel,
		},
		{
			name:         "empty provider detects echo",
			cfg:          Config{},
			wantProvider: ProviderEcho,
			wantModel:    EchoModel,
		},
		{
			name:         "openai with explicit key",
			cfg:          Config{Provider: "openai", APIKey: "k"},
			wantProvider: ProviderOpenAI,
			wantModel:    DefaultOpenAIModel,
		},
		{
			name:         "openai custom model",
			cfg:          Config{Provider: "openai", APIKey: "k", Model: "gpt-x"},
			wantProvider: ProviderOpenAI,
			wantModel:    "gpt-x",
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: ErrNoProviderEnabled,
		},
		{
			name:    "gemini without key",
			cfg:     Config{Provider: "gemini"},
			wantErr: ErrNoProviderEnabled,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "bard"},
			wantErr: ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, g.Provider())
			assert.Equal(t, tt.wantModel, g.Model())
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "from-env")

	g, err := NewFromEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, g.Provider())
}

func TestConfigKey(t *testing.T) {
	a := Config{Provider: "openai", Model: "m", APIKey: "k"}
	b := Config{Provider: "OPENAI", Model: "m", APIKey: "k"}
	c := Config{Provider: "openai", Model: "m", APIKey: "other"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Len(t, a.Key(), 64)
}

func TestNewSession_InitializationError(t *testing.T) {
	t.Setenv(EnvGeminiAPIKey, "")

	_, err := NewSession(context.Background(), Config{Provider: "gemini"})

	var initErr *types.InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "gemini", initErr.Provider)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestSessionPool(t *testing.T) {
	pool, err := NewSessionPool(1)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := pool.Get(ctx, Config{Provider: "echo", Model: "a"})
	require.NoError(t, err)
	again, err := pool.Get(ctx, Config{Provider: "echo", Model: "a"})
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, pool.Len())
	again.Release()

	second, err := pool.Get(ctx, Config{Provider: "echo", Model: "b"})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, pool.Len())

	// evicted while still held: usable until the holder releases it
	_, err = first.Generate(ctx, "x", types.GenerationParameters{})
	require.NoError(t, err)
	first.Release()
	_, err = first.Generate(ctx, "x", types.GenerationParameters{})
	assert.ErrorIs(t, err, ErrClosed)

	second.Release()
	_, err = second.Generate(ctx, "x", types.GenerationParameters{})
	require.NoError(t, err, "released sessions stay open while pooled")

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.Len())
	_, err = second.Generate(ctx, "x", types.GenerationParameters{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionPool_EvictionWaitsForHolders(t *testing.T) {
	pool, err := NewSessionPool(1)
	require.NoError(t, err)
	ctx := context.Background()

	held, err := pool.Get(ctx, Config{Provider: "echo", Model: "a"})
	require.NoError(t, err)
	other, err := pool.Get(ctx, Config{Provider: "echo", Model: "b"})
	require.NoError(t, err)
	defer other.Release()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = held.Generate(ctx, "x", types.GenerationParameters{})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	held.Release()
	held.Release()
	_, err = held.Generate(ctx, "x", types.GenerationParameters{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionPool_InitFailureNotCached(t *testing.T) {
	pool, err := NewSessionPool(2)
	require.NoError(t, err)

	_, err = pool.Get(context.Background(), Config{Provider: "bard"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Equal(t, 0, pool.Len())
}

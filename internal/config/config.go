package config

import (
	"github.com/dshills/docflow-mcp/internal/chunker"
	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/internal/generator"
	"github.com/dshills/docflow-mcp/internal/processor"
)

// DefaultDBPath is the default directory of the run history database
const DefaultDBPath = "~/.docflow"

// Config is the complete service configuration
type Config struct {
	Log        LogConfig        `koanf:"log"        validate:"required"`
	Generator  GeneratorConfig  `koanf:"generator"  validate:"required"`
	Processing ProcessingConfig `koanf:"processing" validate:"required"`
	Server     ServerConfig     `koanf:"server"     validate:"required"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error" env:"DOCFLOW_LOG_LEVEL"`
}

// GeneratorConfig selects and configures the generative service. An empty
// provider is detected from the credentials present in the environment.
type GeneratorConfig struct {
	Provider   string `koanf:"provider"    validate:"omitempty,oneof=gemini openai echo" env:"DOCFLOW_PROVIDER"`
	Model      string `koanf:"model"                                                     env:"DOCFLOW_MODEL"`
	APIKey     string `koanf:"api_key"                                                   env:"DOCFLOW_API_KEY"`
	BaseURL    string `koanf:"base_url"    validate:"omitempty,url"                      env:"DOCFLOW_BASE_URL"`
	MaxRetries int    `koanf:"max_retries" validate:"min=1,max=10"                       env:"DOCFLOW_MAX_RETRIES"`
}

// ProcessingConfig holds the chunking and merging thresholds
type ProcessingConfig struct {
	TokenCeiling        int     `koanf:"token_ceiling"         validate:"min=1"               env:"DOCFLOW_TOKEN_CEILING"`
	CharCeiling         int     `koanf:"char_ceiling"          validate:"min=1"               env:"DOCFLOW_CHAR_CEILING"`
	ComplexityThreshold float64 `koanf:"complexity_threshold"  validate:"gt=0,lte=1"          env:"DOCFLOW_COMPLEXITY_THRESHOLD"`
	MaxChunkChars       int     `koanf:"max_chunk_chars"       validate:"min=1"               env:"DOCFLOW_MAX_CHUNK_CHARS"`
	OverlapChars        int     `koanf:"overlap_chars"         validate:"min=0"               env:"DOCFLOW_OVERLAP_CHARS"`
	PreviewChars        int     `koanf:"preview_chars"         validate:"min=0"               env:"DOCFLOW_PREVIEW_CHARS"`
	ReformatMergeWindow int     `koanf:"reformat_merge_window" validate:"min=0"               env:"DOCFLOW_REFORMAT_MERGE_WINDOW"`
	RewriteMergeWindow  int     `koanf:"rewrite_merge_window"  validate:"min=0"               env:"DOCFLOW_REWRITE_MERGE_WINDOW"`
	ContextTokenBudget  int     `koanf:"context_token_budget"  validate:"min=0"               env:"DOCFLOW_CONTEXT_TOKEN_BUDGET"`
	TokenCounter        string  `koanf:"token_counter"         validate:"oneof=heuristic tiktoken" env:"DOCFLOW_TOKEN_COUNTER"`
}

// ServerConfig configures the MCP server
type ServerConfig struct {
	DBPath           string `koanf:"db_path"            validate:"required" env:"DOCFLOW_DB_PATH"`
	MaxConcurrent    int    `koanf:"max_concurrent"     validate:"min=1"    env:"DOCFLOW_MAX_CONCURRENT"`
	SessionCacheSize int    `koanf:"session_cache_size" validate:"min=1"    env:"DOCFLOW_SESSION_CACHE_SIZE"`
	HistoryLimit     int    `koanf:"history_limit"      validate:"min=1"    env:"DOCFLOW_HISTORY_LIMIT"`
}

// Default returns the default configuration
func Default() *Config {
	p := processor.DefaultConfig()
	return &Config{
		Log: LogConfig{Level: "info"},
		Generator: GeneratorConfig{
			MaxRetries: generator.MaxRetries,
		},
		Processing: ProcessingConfig{
			TokenCeiling:        p.TokenCeiling,
			CharCeiling:         p.CharCeiling,
			ComplexityThreshold: p.ComplexityThreshold,
			MaxChunkChars:       chunker.DefaultMaxChunkChars,
			OverlapChars:        chunker.DefaultOverlapChars,
			PreviewChars:        chunker.DefaultPreviewChars,
			ReformatMergeWindow: p.ReformatMergeWindow,
			RewriteMergeWindow:  p.RewriteMergeWindow,
			ContextTokenBudget:  p.ContextTokenBudget,
			TokenCounter:        complexity.CounterHeuristic,
		},
		Server: ServerConfig{
			DBPath:           DefaultDBPath,
			MaxConcurrent:    4,
			SessionCacheSize: generator.DefaultPoolSize,
			HistoryLimit:     20,
		},
	}
}

// ToGenerator converts the generator section for generator.New
func (g GeneratorConfig) ToGenerator() generator.Config {
	return generator.Config{
		Provider:   g.Provider,
		Model:      g.Model,
		APIKey:     g.APIKey,
		BaseURL:    g.BaseURL,
		MaxRetries: g.MaxRetries,
	}
}

// ToProcessor converts the processing section for processor.New
func (p ProcessingConfig) ToProcessor() processor.Config {
	return processor.Config{
		TokenCeiling:        p.TokenCeiling,
		CharCeiling:         p.CharCeiling,
		ComplexityThreshold: p.ComplexityThreshold,
		MaxChunkChars:       p.MaxChunkChars,
		OverlapChars:        p.OverlapChars,
		PreviewChars:        p.PreviewChars,
		ReformatMergeWindow: p.ReformatMergeWindow,
		RewriteMergeWindow:  p.RewriteMergeWindow,
		ContextTokenBudget:  p.ContextTokenBudget,
	}
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/docflow-mcp/internal/analyzer"
	"github.com/dshills/docflow-mcp/internal/chunker"
	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/internal/generator"
	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/internal/prompt"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// Processor reformats and rewrites markdown documents through a
// generator. A Processor holds no per-request state and is safe for
// concurrent use; the generator it is given is owned by the caller.
type Processor struct {
	gen       generator.Generator
	cfg       Config
	counter   complexity.TokenCounter
	chunker   *chunker.Chunker
	analyzer  *analyzer.Analyzer
	observers []StateObserver
}

// Option configures a Processor
type Option func(*Processor)

// WithTokenCounter sets the counter used for the token ceiling
func WithTokenCounter(c complexity.TokenCounter) Option {
	return func(p *Processor) {
		if c != nil {
			p.counter = c
		}
	}
}

// WithStateObserver registers an observer of request state transitions
func WithStateObserver(o StateObserver) Option {
	return func(p *Processor) {
		p.observers = append(p.observers, o)
	}
}

// New creates a processor that sends prompts to gen
func New(gen generator.Generator, cfg Config, opts ...Option) (*Processor, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processor config: %w", err)
	}

	p := &Processor{
		gen:      gen,
		cfg:      cfg,
		counter:  complexity.HeuristicCounter{},
		chunker:  chunker.New(),
		analyzer: analyzer.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan describes how a document will be processed
type Plan struct {
	Complexity types.ContentComplexity
	Score      float64
	Dominant   complexity.Dimension
	Tokens     int
	Chars      int
	Mode       types.Mode
	ChunkSize  int // zero in single-shot mode
	Chunks     []*types.Chunk
}

// Plan analyzes content and decides between single-shot and chunked
// processing. No generation happens.
func (p *Processor) Plan(content string) Plan {
	c := complexity.Analyze(content)
	plan := Plan{
		Complexity: c,
		Score:      complexity.Score(c),
		Dominant:   complexity.Dominant(c),
		Tokens:     p.counter.Count(content),
		Chars:      utf8.RuneCountInString(content),
		Mode:       types.ModeSingleShot,
	}
	if strings.TrimSpace(content) == "" || !p.shouldChunk(plan) {
		return plan
	}

	size := complexity.AdaptiveChunkSize(c, p.cfg.MaxChunkChars)
	chunks := p.chunker.Chunk(content, size, p.cfg.OverlapChars)
	if len(chunks) <= 1 {
		return plan
	}
	plan.Mode = types.ModeChunked
	plan.ChunkSize = size
	plan.Chunks = chunks
	return plan
}

func (p *Processor) shouldChunk(plan Plan) bool {
	scale := complexity.ThresholdScale(plan.Complexity)
	switch {
	case float64(plan.Tokens) > float64(p.cfg.TokenCeiling)*scale:
		return true
	case float64(plan.Chars) > float64(p.cfg.CharCeiling)*scale:
		return true
	default:
		return plan.Score > p.cfg.ComplexityThreshold*scale
	}
}

// work is what differs between reformat and rewrite requests
type work struct {
	content      string
	window       int
	params       types.GenerationParameters
	singlePrompt func() string
	chunkPrompt  func(chunk *types.Chunk, cc types.ChunkContext) string
	onProgress   types.ProgressFunc
}

// outcome is the result of a request before it is shaped for the caller
type outcome struct {
	content   string
	processed int
	total     int
	mode      types.Mode
}

// Reformat cleans up the formatting of content without changing its
// meaning. It never panics or returns an error; failures are reported in
// the result.
func (p *Processor) Reformat(ctx context.Context, content string, onProgress types.ProgressFunc) types.ReformatResult {
	m := newMachine(RequestID(ctx), p.observers)

	o, err := p.reformat(ctx, m, content, onProgress)
	if err != nil {
		p.fail(m, err)
		return types.ReformatResult{Error: err.Error(), ChunksProcessed: o.processed, TotalChunks: o.total, Mode: o.mode}
	}
	return types.ReformatResult{Success: true, Content: o.content, ChunksProcessed: o.processed, TotalChunks: o.total, Mode: o.mode}
}

func (p *Processor) reformat(ctx context.Context, m *machine, content string, onProgress types.ProgressFunc) (outcome, error) {
	if err := m.transition(StateAnalyzing); err != nil {
		return outcome{}, err
	}
	plan := p.Plan(content)

	return p.execute(ctx, m, plan, work{
		content: content,
		window:  p.cfg.ReformatMergeWindow,
		params:  prompt.ReformatGenerationParameters(plan.Complexity),
		singlePrompt: func() string {
			return prompt.BuildReformatPrompt(prompt.Request{Content: content, Complexity: plan.Complexity})
		},
		chunkPrompt: func(chunk *types.Chunk, cc types.ChunkContext) string {
			return prompt.BuildChunkReformatPrompt(prompt.Request{Complexity: complexity.Analyze(chunk.Content)}, chunk, cc)
		},
		onProgress: onProgress,
	})
}

// Rewrite transforms content according to instruction while keeping it
// coherent with the document around it. rc may be nil.
func (p *Processor) Rewrite(ctx context.Context, content, instruction string, rc *types.RewriteContext, onProgress types.ProgressFunc) types.RewriteResult {
	m := newMachine(RequestID(ctx), p.observers)

	o, err := p.rewrite(ctx, m, content, instruction, rc, onProgress)
	if err != nil {
		p.fail(m, err)
		return types.RewriteResult{Error: err.Error(), ChunksProcessed: o.processed, TotalChunks: o.total, Mode: o.mode}
	}
	return types.RewriteResult{Success: true, Content: o.content, ChunksProcessed: o.processed, TotalChunks: o.total, Mode: o.mode}
}

func (p *Processor) rewrite(ctx context.Context, m *machine, content, instruction string, rc *types.RewriteContext, onProgress types.ProgressFunc) (outcome, error) {
	if strings.TrimSpace(instruction) == "" {
		return outcome{}, types.ErrEmptyInstruction
	}
	if err := m.transition(StateAnalyzing); err != nil {
		return outcome{}, err
	}
	if rc == nil {
		rc = &types.RewriteContext{}
	}

	plan := p.Plan(content)

	document := rc.DocumentStructure
	if document == "" {
		document = rc.Before + content + rc.After
	}
	analysis := p.analyzer.Analyze(document, content)
	semantic := p.analyzer.ExtractSemanticContext(content, document)
	before, after := p.analyzer.OptimalContextWindow(content, rc.Before, rc.After, p.cfg.ContextTokenBudget)

	req := prompt.Request{
		Content:     content,
		Instruction: instruction,
		Context:     &types.RewriteContext{Before: before, After: after},
		Analysis:    &analysis,
		Semantic:    &semantic,
		Complexity:  plan.Complexity,
	}

	return p.execute(ctx, m, plan, work{
		content: content,
		window:  p.cfg.RewriteMergeWindow,
		params:  prompt.OptimizeGenerationParameters(analysis, plan.Complexity, instruction),
		singlePrompt: func() string {
			return prompt.BuildRewritePrompt(req)
		},
		chunkPrompt: func(chunk *types.Chunk, cc types.ChunkContext) string {
			r := req
			r.Content = chunk.Content
			r.Complexity = complexity.Analyze(chunk.Content)
			return prompt.BuildChunkRewritePrompt(r, chunk, cc)
		},
		onProgress: onProgress,
	})
}

// execute runs the generation phase of a planned request
func (p *Processor) execute(ctx context.Context, m *machine, plan Plan, w work) (outcome, error) {
	if strings.TrimSpace(w.content) == "" {
		// nothing to generate
		for _, s := range []State{StateSingleShot, StateMerging} {
			if err := m.transition(s); err != nil {
				return outcome{}, err
			}
		}
		return p.done(m, outcome{mode: types.ModeSingleShot})
	}
	if plan.Mode == types.ModeChunked {
		return p.chunked(ctx, m, plan, w)
	}
	return p.singleShot(ctx, m, w)
}

func (p *Processor) singleShot(ctx context.Context, m *machine, w work) (outcome, error) {
	o := outcome{total: 1, mode: types.ModeSingleShot}
	if err := m.transition(StateSingleShot); err != nil {
		return o, err
	}
	if err := ctx.Err(); err != nil {
		return o, fmt.Errorf("%w: %w", types.ErrCanceled, err)
	}

	response, err := p.generate(ctx, w.singlePrompt(), w.params)
	if err != nil {
		if errors.Is(err, types.ErrCanceled) {
			return o, err
		}
		return o, &types.GenerationError{Chunk: 1, Total: 1, Err: err}
	}

	if err := m.transition(StateMerging); err != nil {
		return o, err
	}
	o.content = prompt.CleanResponse(response, w.content)
	o.processed = 1
	if w.onProgress != nil {
		w.onProgress(1, 1)
	}
	return p.done(m, o)
}

// chunked folds the chunk outputs into the merged document in order
func (p *Processor) chunked(ctx context.Context, m *machine, plan Plan, w work) (outcome, error) {
	total := len(plan.Chunks)
	o := outcome{total: total, mode: types.ModeChunked}
	if err := m.transition(StateChunking); err != nil {
		return o, err
	}

	outline := p.analyzer.Outline(w.content)
	signature := complexity.StyleSignature(w.content)
	log.Debugf("request %s: %d chunks of at most %d chars", m.id, total, plan.ChunkSize)

	acc := accumulator{}
	for i, chunk := range plan.Chunks {
		if err := ctx.Err(); err != nil {
			o.processed = acc.processed
			return o, fmt.Errorf("%w after %d of %d chunks: %w", types.ErrCanceled, acc.processed, total, err)
		}

		cc := chunker.BuildContext(plan.Chunks, i, outline, signature, p.cfg.PreviewChars)
		response, err := p.generate(ctx, w.chunkPrompt(chunk, cc), w.params)
		if err != nil {
			o.processed = acc.processed
			if errors.Is(err, types.ErrCanceled) {
				return o, err
			}
			return o, &types.GenerationError{Chunk: i + 1, Total: total, Err: err}
		}

		acc = acc.add(prompt.CleanResponse(response, chunk.Content), chunk.Content, w.window)
		if w.onProgress != nil {
			w.onProgress(acc.processed, total)
		}
	}

	o.processed = acc.processed
	if err := m.transition(StateMerging); err != nil {
		return o, err
	}
	o.content = strings.TrimSpace(acc.merged)
	return p.done(m, o)
}

// generate calls the generator on a context that outlives cancellation of
// ctx. If ctx was canceled meanwhile the response is discarded.
func (p *Processor) generate(ctx context.Context, promptText string, params types.GenerationParameters) (string, error) {
	response, err := p.gen.Generate(context.WithoutCancel(ctx), promptText, params)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: %w", types.ErrCanceled, ctxErr)
	}
	return response, err
}

func (p *Processor) done(m *machine, o outcome) (outcome, error) {
	if err := m.transition(StateDone); err != nil {
		return o, err
	}
	return o, nil
}

func (p *Processor) fail(m *machine, err error) {
	m.fail()
	log.Warnf("request %s failed: %v", m.id, err)
}

type requestIDKey struct{}

// WithRequestID attaches an identifier to the requests made with ctx. It
// appears in logs and is passed to state observers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the identifier attached to ctx, or a new one
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/internal/generator"
	"github.com/dshills/docflow-mcp/internal/prompt"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// fakeGenerator records every call and answers through respond. By
// default it echoes the marked content like the echo provider.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	params  []types.GenerationParameters
	respond func(call int, prompt string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, p string, params types.GenerationParameters) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.params = append(f.params, params)
	call := len(f.prompts)
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(call, p)
	}
	return generator.ExtractContent(p), nil
}

func (f *fakeGenerator) Provider() string { return "fake" }
func (f *fakeGenerator) Model() string    { return "fake" }
func (f *fakeGenerator) Close() error     { return nil }

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newTestProcessor(t *testing.T, gen generator.Generator, opts ...Option) *Processor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CharCeiling = 500
	cfg.MaxChunkChars = 1000
	p, err := New(gen, cfg, opts...)
	require.NoError(t, err)
	return p
}

// paragraphs builds n distinct short paragraphs separated by blank lines
func paragraphs(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "Paragraph %02d describes item number %02d in plain words.\n\n", i, i)
	}
	return b.String()
}

func TestNew(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.OverlapChars = cfg.MaxChunkChars
	_, err = New(&fakeGenerator{}, cfg)
	assert.Error(t, err)

	_, err = New(&fakeGenerator{}, DefaultConfig())
	assert.NoError(t, err)
}

func TestReformat_SingleShot(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	var progress [][2]int
	doc := "# Title\n\nHello world"
	result := p.Reformat(context.Background(), doc, func(current, total int) {
		progress = append(progress, [2]int{current, total})
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "# Title\n\nHello world", result.Content)
	assert.Equal(t, 1, result.ChunksProcessed)
	assert.Equal(t, 1, result.TotalChunks)
	assert.Equal(t, types.ModeSingleShot, result.Mode)
	assert.Equal(t, [][2]int{{1, 1}}, progress)
	assert.Equal(t, 1, gen.calls())
	assert.Equal(t, prompt.ReformatGenerationParameters(complexity.Analyze(doc)), gen.params[0])
}

func TestReformat_EmptyInput(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	result := p.Reformat(context.Background(), "  \n", nil)

	assert.True(t, result.Success)
	assert.Empty(t, result.Content)
	assert.Equal(t, 0, result.TotalChunks)
	assert.Equal(t, 0, gen.calls())
}

func TestReformat_ChunkedNoOpRoundTrip(t *testing.T) {
	doc := paragraphs(40)
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	var progress []int
	result := p.Reformat(context.Background(), doc, func(current, total int) {
		progress = append(progress, current)
		assert.Equal(t, gen.calls(), current)
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, types.ModeChunked, result.Mode)
	assert.Greater(t, result.TotalChunks, 1)
	assert.Equal(t, result.TotalChunks, result.ChunksProcessed)
	assert.Equal(t, strings.TrimSpace(doc), result.Content)
	assert.Len(t, progress, result.TotalChunks)
	assert.Contains(t, gen.prompts[1], "Earlier parts have already been processed")
}

func TestReformat_ChunkedRepeatedBlocksRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		block string
		count int
	}{
		{"list", "- same item\n- other item\n\n", 60},
		{"code", "```\nx := 1\n```\n\n", 80},
		{"paragraph", "The same paragraph again.\n\n", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Repeat(tt.block, tt.count)
			p := newTestProcessor(t, &fakeGenerator{})

			result := p.Reformat(context.Background(), doc, nil)

			require.True(t, result.Success, result.Error)
			assert.Greater(t, result.TotalChunks, 1)
			assert.Equal(t, strings.TrimSpace(doc), result.Content)
		})
	}
}

func TestReformat_ChunkedOverlapDedup(t *testing.T) {
	doc := paragraphs(40)
	var prevLast string
	gen := &fakeGenerator{}
	gen.respond = func(call int, p string) (string, error) {
		content := strings.TrimSpace(generator.ExtractContent(p))
		out := content
		if call > 1 {
			// repeat the end of the previous output
			out = prevLast + "\n\n" + content
		}
		lines := strings.Split(content, "\n")
		prevLast = lines[len(lines)-1]
		return out, nil
	}
	p := newTestProcessor(t, gen)

	result := p.Reformat(context.Background(), doc, nil)

	require.True(t, result.Success, result.Error)
	assert.Greater(t, result.TotalChunks, 1)
	assert.Equal(t, strings.TrimSpace(doc), result.Content)
}

func TestReformat_ChunkFailure(t *testing.T) {
	gen := &fakeGenerator{}
	gen.respond = func(call int, p string) (string, error) {
		if call == 2 {
			return "", errors.New("quota exceeded")
		}
		return generator.ExtractContent(p), nil
	}
	p := newTestProcessor(t, gen)

	result := p.Reformat(context.Background(), paragraphs(40), nil)

	assert.False(t, result.Success)
	assert.Empty(t, result.Content)
	assert.Equal(t, 1, result.ChunksProcessed)
	assert.Greater(t, result.TotalChunks, 1)
	assert.Contains(t, result.Error, fmt.Sprintf("chunk 2/%d", result.TotalChunks))
	assert.Contains(t, result.Error, "quota exceeded")
	assert.Equal(t, 2, gen.calls())
}

func TestReformat_SingleShotFailure(t *testing.T) {
	gen := &fakeGenerator{respond: func(int, string) (string, error) {
		return "", types.ErrEmptyResponse
	}}
	p := newTestProcessor(t, gen)

	result := p.Reformat(context.Background(), "# Title\n\nHello world", nil)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.ChunksProcessed)
	assert.Equal(t, 1, result.TotalChunks)
	assert.Contains(t, result.Error, types.ErrEmptyResponse.Error())
}

func TestReformat_CanceledDuringChunk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &fakeGenerator{}
	gen.respond = func(_ int, p string) (string, error) {
		cancel()
		return generator.ExtractContent(p), nil
	}
	p := newTestProcessor(t, gen)

	result := p.Reformat(ctx, paragraphs(40), nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, types.ErrCanceled.Error())
	assert.Equal(t, 0, result.ChunksProcessed)
	assert.Equal(t, 1, gen.calls(), "no chunk is submitted after cancellation")
}

func TestReformat_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	result := p.Reformat(ctx, "# Title\n\nHello world", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, types.ErrCanceled.Error())
	assert.Equal(t, 0, gen.calls())
}

func TestRewrite_FormalSourceLowersTemperature(t *testing.T) {
	source := "Therefore the committee shall proceed. Furthermore the results are final. " +
		"Moreover the report shall be published accordingly."
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	result := p.Rewrite(context.Background(), source, "make this more formal", nil, nil)

	require.True(t, result.Success, result.Error)
	require.Len(t, gen.params, 1)
	assert.Less(t, gen.params[0].Temperature, prompt.BaseTemperature)
	assert.Contains(t, gen.prompts[0], "## Instruction\nmake this more formal")
}

func TestRewrite_UsesSurroundings(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	rc := &types.RewriteContext{
		Before: "# Guide\n\nThe cache server starts first.\n\n",
		After:  "\n\n## Deploy\n\nThe cache is then warmed.",
	}
	result := p.Rewrite(context.Background(), "The cache server handles requests.", "shorten", rc, nil)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "The cache server handles requests.", result.Content)
	assert.Contains(t, gen.prompts[0], "Before:\n# Guide")
	assert.Contains(t, gen.prompts[0], "## Deploy")
}

func TestRewrite_Chunked(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	doc := paragraphs(40)
	result := p.Rewrite(context.Background(), doc, "simplify", &types.RewriteContext{DocumentStructure: doc}, nil)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, types.ModeChunked, result.Mode)
	assert.Equal(t, strings.TrimSpace(doc), result.Content)
	for _, prm := range gen.prompts {
		assert.Contains(t, prm, "## Instruction\nsimplify")
	}
}

func TestRewrite_EmptyInstruction(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestProcessor(t, gen)

	result := p.Rewrite(context.Background(), "text", "   ", nil, nil)

	assert.False(t, result.Success)
	assert.Equal(t, types.ErrEmptyInstruction.Error(), result.Error)
	assert.Equal(t, 0, gen.calls())
}

func TestStateObserver(t *testing.T) {
	type transition struct{ from, to State }

	tests := []struct {
		name    string
		respond func(int, string) (string, error)
		want    []transition
	}{
		{
			name: "success",
			want: []transition{
				{StateIdle, StateAnalyzing},
				{StateAnalyzing, StateSingleShot},
				{StateSingleShot, StateMerging},
				{StateMerging, StateDone},
			},
		},
		{
			name: "failure",
			respond: func(int, string) (string, error) {
				return "", errors.New("down")
			},
			want: []transition{
				{StateIdle, StateAnalyzing},
				{StateAnalyzing, StateSingleShot},
				{StateSingleShot, StateFailed},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []transition
			observer := func(id string, from, to State) {
				assert.Equal(t, "req-1", id)
				got = append(got, transition{from, to})
			}
			p := newTestProcessor(t, &fakeGenerator{respond: tt.respond}, WithStateObserver(observer))

			p.Reformat(WithRequestID(context.Background(), "req-1"), "# Title\n\nHello world", nil)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateAnalyzing, true},
		{StateAnalyzing, StateChunking, true},
		{StateChunking, StateMerging, true},
		{StateMerging, StateDone, true},
		{StateChunking, StateFailed, true},
		{StateIdle, StateDone, false},
		{StateSingleShot, StateChunking, false},
		{StateDone, StateFailed, false},
		{StateFailed, StateIdle, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	m := newMachine("x", nil)
	err := m.transition(StateDone)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestPlan(t *testing.T) {
	p := newTestProcessor(t, &fakeGenerator{})

	small := p.Plan("# Title\n\nHello world")
	assert.Equal(t, types.ModeSingleShot, small.Mode)
	assert.Empty(t, small.Chunks)

	large := p.Plan(paragraphs(40))
	assert.Equal(t, types.ModeChunked, large.Mode)
	assert.Equal(t, 1000, large.ChunkSize)
	assert.Greater(t, len(large.Chunks), 1)

	// a single unbreakable block stays single shot
	block := "```\n" + strings.Repeat("x := compute(value)\n", 250) + "```\n"
	oversized := p.Plan(block)
	assert.Equal(t, types.ModeSingleShot, oversized.Mode)
	assert.Equal(t, complexity.DimensionCode, oversized.Dominant)
}

func TestPlan_CodeChunksEarlier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CharCeiling = 2000
	cfg.MaxChunkChars = 1000
	p, err := New(&fakeGenerator{}, cfg)
	require.NoError(t, err)

	var code strings.Builder
	for i := 0; code.Len() < 1600; i++ {
		fmt.Fprintf(&code, "```go\nfmt.Println(\"block %02d\")\n```\n\n", i)
	}
	prose := paragraphs(40)[:code.Len()]

	assert.Equal(t, types.ModeChunked, p.Plan(code.String()).Mode)
	assert.Equal(t, types.ModeSingleShot, p.Plan(prose).Mode)
}

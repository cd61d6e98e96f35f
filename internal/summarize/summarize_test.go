package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/papersum/pkg/config"
)

// fakeModel echoes the prompt followed by a canned continuation, the way a
// causal model returns prompt + generated tokens.
type fakeModel struct {
	mu       sync.Mutex
	reply    string
	echo     bool
	err      error
	prompts  []string
	opts     llms.CallOptions
	inFlight int
	maxSeen  int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	for _, o := range options {
		o(&f.opts)
	}
	var prompt string
	for _, p := range messages[len(messages)-1].Parts {
		if tp, ok := p.(llms.TextContent); ok {
			prompt += tp.Text
		}
	}
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	content := f.reply
	if f.echo {
		content = prompt + f.reply
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLLMSummarizer_Summarize(t *testing.T) {
	m := &fakeModel{echo: true, reply: " The paper introduces a sparse attention scheme. Figure 3 shows the speedup."}
	s, err := New(m, "fake", DefaultOptions(), "", nil)
	require.NoError(t, err)

	out, err := s.Summarize(context.Background(), "We study attention sparsity in long documents.")
	require.NoError(t, err)

	assert.Equal(t, "The paper introduces a sparse attention scheme.", out)
	require.Len(t, m.prompts, 1)
	assert.True(t, strings.HasSuffix(m.prompts[0], "Summary:"))
	assert.Contains(t, m.prompts[0], "We study attention sparsity")

	assert.Equal(t, 250, m.opts.MaxTokens)
	assert.InDelta(t, 0.7, m.opts.Temperature, 1e-9)
	assert.InDelta(t, 0.9, m.opts.TopP, 1e-9)
}

func TestLLMSummarizer_InputIsBounded(t *testing.T) {
	m := &fakeModel{reply: "ok"}
	s, err := New(m, "fake", Options{MaxInputChars: 100}, "{{.Text}}", nil)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), strings.Repeat("a", 500))
	require.NoError(t, err)
	assert.Equal(t, 100, utf8.RuneCountInString(m.prompts[0]))
}

func TestLLMSummarizer_ModelError(t *testing.T) {
	boom := errors.New("connection refused")
	s, err := New(&fakeModel{err: boom}, "fake", DefaultOptions(), "", nil)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLLMSummarizer_Properties(t *testing.T) {
	m := &fakeModel{reply: "Summary: " + strings.Repeat("finding ", 300) + "\nReferences: [1] foo"}
	s, err := New(m, "fake", DefaultOptions(), "", nil)
	require.NoError(t, err)

	out, err := s.Summarize(context.Background(), "text")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxSummaryChars)
	assert.NotContains(t, out, "References")
}

func TestLLMSummarizer_SerialisesCalls(t *testing.T) {
	m := &fakeModel{reply: "Summary: fine"}
	s, err := New(m, "fake", DefaultOptions(), "", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Summarize(context.Background(), "text")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.maxSeen)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, "x", DefaultOptions(), "", nil)
	assert.Error(t, err)

	_, err = New(&fakeModel{}, "x", DefaultOptions(), "{{.Text", nil)
	assert.Error(t, err)
}

func TestNewModel(t *testing.T) {
	_, err := NewModel("", config.ProviderConfig{})
	assert.Error(t, err)

	_, err = NewModel("bedrock", config.ProviderConfig{})
	assert.Error(t, err)

	m, err := NewModel("ollama", config.ProviderConfig{Model: "phi", BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	m, err = NewModel("openai", config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	m, err = NewModel("anthropic", config.ProviderConfig{APIKey: "sk-ant-test", Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

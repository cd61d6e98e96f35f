package agent

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// echoModel behaves like a causal model: it returns the prompt followed by
// its continuation.
type echoModel struct {
	reply string
}

func (m *echoModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var prompt string
	for _, p := range messages[len(messages)-1].Parts {
		if tp, ok := p.(llms.TextContent); ok {
			prompt += tp.Text
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: prompt + m.reply}}}, nil
}

func (m *echoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

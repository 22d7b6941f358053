package analyzer

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"etfpulse/internal/types"
)

// LangchainAnalyzer runs the trend comparison against a hosted model
// through langchaingo. API keys come from the environment
// (OPENAI_API_KEY / ANTHROPIC_API_KEY), same as the providers' own clients.
type LangchainAnalyzer struct {
	name string
	llm  llms.Model
}

func NewOpenAIAnalyzer(name, model string) (*LangchainAnalyzer, error) {
	llm, err := openai.New(openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &LangchainAnalyzer{name: name, llm: llm}, nil
}

func NewAnthropicAnalyzer(name, model string) (*LangchainAnalyzer, error) {
	llm, err := anthropic.New(anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	return &LangchainAnalyzer{name: name, llm: llm}, nil
}

func (a *LangchainAnalyzer) Name() string {
	return a.name
}

func (a *LangchainAnalyzer) Summarize(ctx context.Context, present, earlier types.Table, note string) (string, error) {
	summary, err := llms.GenerateFromSinglePrompt(ctx, a.llm, BuildPrompt(present, earlier, note))
	if err != nil {
		return "", fmt.Errorf("llm generate failed: %w", err)
	}
	if summary == "" {
		return "", fmt.Errorf("llm returned an empty summary")
	}
	return summary, nil
}

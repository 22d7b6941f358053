package analyzer

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"

	"etfpulse/internal/types"
)

// OllamaAnalyzer runs the trend comparison against a local Ollama model.
type OllamaAnalyzer struct {
	name   string
	client *api.Client
	model  string
}

func NewOllamaAnalyzer(name, model string) (*OllamaAnalyzer, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama analyzer requires a model")
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaAnalyzer{
		name:   name,
		client: client,
		model:  model,
	}, nil
}

func (a *OllamaAnalyzer) Name() string {
	return a.name
}

func (a *OllamaAnalyzer) Summarize(ctx context.Context, present, earlier types.Table, note string) (string, error) {
	req := &api.GenerateRequest{
		Model:  a.model,
		Prompt: BuildPrompt(present, earlier, note),
		Stream: new(bool),
	}

	var summary string
	respFunc := func(resp api.GenerateResponse) error {
		if resp.Done {
			summary = resp.Response
		}
		return nil
	}

	if err := a.client.Generate(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	if summary == "" {
		return "", fmt.Errorf("ollama returned an empty summary")
	}

	return summary, nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	llmTemperature = 0.7
	llmMaxTokens   = 300
)

// promptLLM is the single-prompt completion call the bot needs for prompt
// optimization and activation judging.
type promptLLM interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// openRouterLLM runs completions through an OpenAI-compatible endpoint,
// OpenRouter by default.
type openRouterLLM struct {
	llm llms.Model
}

func newOpenRouterLLM(apiKey, baseURL, model string) (*openRouterLLM, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &openRouterLLM{llm: llm}, nil
}

func (o *openRouterLLM) Complete(ctx context.Context, model, prompt string) (string, error) {
	logLLMRequest(model, prompt)

	opts := []llms.CallOption{
		llms.WithTemperature(llmTemperature),
		llms.WithMaxTokens(llmMaxTokens),
	}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to call LLM: %w", err)
	}

	logLLMResponse(model, response)
	return strings.TrimSpace(response), nil
}

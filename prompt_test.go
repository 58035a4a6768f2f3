package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposePrefixWhenOptimizationOff(t *testing.T) {
	llm := &fakeLLM{answer: "should not be used"}
	p := newPromptComposer(llm, ActionSettings{PromptOptimize: false})

	got := p.Compose(context.Background(), "a cat on the moon")

	assert.Equal(t, "best quality, absurdres, masterpiece, a cat on the moon", got)
	assert.Empty(t, llm.prompts)
}

func TestComposeWithoutLLMUsesPrefix(t *testing.T) {
	p := newPromptComposer(nil, ActionSettings{PromptOptimize: true})
	assert.Equal(t, qualityPrefix+"x", p.Compose(context.Background(), "x"))
}

func TestComposeOptimized(t *testing.T) {
	llm := &fakeLLM{answer: "  Prompt: \"cat, moon, stars, ultra detailed\"\n"}
	p := newPromptComposer(llm, ActionSettings{PromptOptimize: true, LLMModel: "some/model"})

	got := p.Compose(context.Background(), "a cat on the moon")

	assert.Equal(t, "cat, moon, stars, ultra detailed", got)
	assert.Equal(t, []string{"some/model"}, llm.models)
	assert.Contains(t, llm.prompts[0], "Description: a cat on the moon")
	assert.NotContains(t, llm.prompts[0], descriptionToken)
}

func TestComposeFallsBackToDescription(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{name: "llm error", llm: &fakeLLM{err: errLLMDown}},
		{name: "empty answer", llm: &fakeLLM{answer: "   "}},
		{name: "only quotes", llm: &fakeLLM{answer: `""`}},
		{name: "too long", llm: &fakeLLM{answer: strings.Repeat("word ", maxOptimizedPrompt)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPromptComposer(tt.llm, ActionSettings{PromptOptimize: true})
			assert.Equal(t, "a cat on the moon", p.Compose(context.Background(), "a cat on the moon"))
		})
	}
}

func TestComposeCustomTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{name: "placeholder", template: "Draw this in ukiyo-e style: {description}!", want: "Draw this in ukiyo-e style: a fox!"},
		{name: "no placeholder", template: "Turn the text below into an SDXL prompt.", want: "Turn the text below into an SDXL prompt.\n\na fox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{answer: "fox"}
			p := newPromptComposer(llm, ActionSettings{PromptOptimize: true, PromptTemplate: tt.template})
			p.Compose(context.Background(), "a fox")
			assert.Equal(t, []string{tt.want}, llm.prompts)
		})
	}
}

func TestCleanOptimizedPrompt(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "plain", want: "plain"},
		{in: "```\nfox, forest\n```", want: "fox, forest"},
		{in: "PROMPT: fox", want: "fox"},
		{in: "“fox in snow”", want: "fox in snow"},
		{in: "  'single quoted'  ", want: "single quoted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanOptimizedPrompt(tt.in), tt.in)
	}
}

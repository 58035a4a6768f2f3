package main

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const (
	qualityPrefix      = "best quality, absurdres, masterpiece, "
	descriptionToken   = "{description}"
	maxOptimizedPrompt = 1000
)

const defaultPromptTemplate = `You write prompts for a text-to-image model (Kolors).
Rewrite the following description into one English image generation prompt.
Use comma-separated tags: subject, appearance, action, scene, lighting, composition, art style, quality words.
Keep every concrete detail the description gives and do not add text or watermarks to the picture.
Return ONLY the prompt, no explanations and no quotes.

Description: {description}`

// promptComposer turns a user description into the prompt sent to the image
// model.
type promptComposer struct {
	llm      promptLLM
	model    string
	optimize bool
	template string
}

func newPromptComposer(llm promptLLM, settings ActionSettings) *promptComposer {
	template := settings.PromptTemplate
	if strings.TrimSpace(template) == "" {
		template = defaultPromptTemplate
	}
	return &promptComposer{
		llm:      llm,
		model:    settings.LLMModel,
		optimize: settings.PromptOptimize && llm != nil,
		template: template,
	}
}

// Compose never fails: an unusable LLM answer falls back to the description itself.
func (p *promptComposer) Compose(ctx context.Context, description string) string {
	if !p.optimize {
		return qualityPrefix + description
	}

	answer, err := p.llm.Complete(ctx, p.model, p.instruction(description))
	if err != nil {
		log.Warn().Err(err).Msg("Prompt optimization failed, using description")
		return description
	}

	prompt := cleanOptimizedPrompt(answer)
	if prompt == "" || utf8.RuneCountInString(prompt) > maxOptimizedPrompt {
		log.Warn().Int("answer_len", len(answer)).Msg("Unusable optimized prompt, using description")
		return description
	}

	log.Info().Str("description", description).Str("prompt", prompt).Msg("Prompt optimized")
	return prompt
}

func (p *promptComposer) instruction(description string) string {
	if strings.Contains(p.template, descriptionToken) {
		return strings.ReplaceAll(p.template, descriptionToken, description)
	}
	return p.template + "\n\n" + description
}

// cleanOptimizedPrompt drops a leading "Prompt:" label and wrapping quotes or
// code fences some models add.
func cleanOptimizedPrompt(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	for _, label := range []string{"Prompt:", "prompt:", "PROMPT:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, label))
	}
	s = strings.Trim(s, "\"'“”")
	return strings.TrimSpace(s)
}

package main

import (
	"context"
	"errors"
	"sync"
)

type fakeHost struct {
	mu       sync.Mutex
	texts    []string
	images   []string
	imageErr error
}

func (h *fakeHost) SendText(_ context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.texts = append(h.texts, text)
	return nil
}

func (h *fakeHost) SendImage(_ context.Context, b64 string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.imageErr != nil {
		return h.imageErr
	}
	h.images = append(h.images, b64)
	return nil
}

func (h *fakeHost) LogPrefix() string { return "[test]" }

type fakeLLM struct {
	answer  string
	err     error
	prompts []string
	models  []string
}

func (f *fakeLLM) Complete(_ context.Context, model, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, model)
	return f.answer, f.err
}

var errLLMDown = errors.New("llm down")

// panicBackend fails loudly to check Execute recovers.
type panicBackend struct{}

func (panicBackend) GenerateImage(context.Context, string, string) (*GeneratedImage, error) {
	panic("boom")
}

func (panicBackend) FetchImage(context.Context, string) ([]byte, error) {
	panic("boom")
}

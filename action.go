package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Messages shown to the chat when the action cannot deliver an image.
const (
	msgNoDescription  = "No image description given~"
	msgGenerateFailed = "Image generation failed (bad parameters or service error)"
	msgBadResult      = "Image generation failed (unexpected result from SiliconFlow)"
	msgDownloadFailed = "Image download or processing failed"
	msgSendFailed     = "Sorry, the image could not be generated or sent"
)

// Host is what the chat side provides to an action.
type Host interface {
	SendText(ctx context.Context, text string) error
	SendImage(ctx context.Context, b64 string) error
	LogPrefix() string
}

// imageBackend is the part of the SiliconFlow client the action uses.
type imageBackend interface {
	GenerateImage(ctx context.Context, prompt, imageSize string) (*GeneratedImage, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// ActionResult is the success flag and message reported back to the caller.
type ActionResult struct {
	OK      bool
	Message string
	Prompt  string
}

// SendImageAction generates an image from a description and delivers it to
// the chat.
type SendImageAction struct {
	settings ActionSettings
	composer *promptComposer
	images   imageBackend
}

func newSendImageAction(settings ActionSettings, images imageBackend, llm promptLLM) *SendImageAction {
	return &SendImageAction{
		settings: settings,
		composer: newPromptComposer(llm, settings),
		images:   images,
	}
}

// Execute runs the action once. It never panics or returns an error; every
// failure is reported to the chat and in the result.
func (a *SendImageAction) Execute(ctx context.Context, host Host, description string) (result ActionResult) {
	prefix := host.LogPrefix()
	log.Info().Str("chat", prefix).Msg("Running send image action")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("chat", prefix).Interface("panic", r).Msg("Send image action panicked")
			a.reply(ctx, host, msgSendFailed)
			result = ActionResult{Message: "image generation or sending failed"}
		}
	}()

	description = strings.TrimSpace(description)
	if description == "" {
		log.Error().Str("chat", prefix).Msg("Image description is empty")
		a.reply(ctx, host, msgNoDescription)
		return ActionResult{Message: "image description is empty"}
	}

	prompt := a.composer.Compose(ctx, description)

	img, err := a.images.GenerateImage(ctx, prompt, a.settings.ImageSize)
	if err != nil {
		return a.generationFailed(ctx, host, prompt, err)
	}

	if img.Base64 != "" {
		if err := host.SendImage(ctx, img.Base64); err != nil {
			return a.sendFailed(ctx, host, prompt, err)
		}
		log.Info().Str("chat", prefix).Msg("Image generated and sent")
		return ActionResult{
			OK:      true,
			Message: fmt.Sprintf("generated and sent image, prompt: %s, size: %s", prompt, a.settings.ImageSize),
			Prompt:  prompt,
		}
	}

	data, err := a.images.FetchImage(ctx, img.URL)
	if errors.Is(err, errNoImage) {
		return a.generationFailed(ctx, host, prompt, err)
	}
	if err != nil {
		log.Error().Err(err).Str("chat", prefix).Str("url", img.URL).Msg("Image download failed")
		a.reply(ctx, host, msgDownloadFailed)
		return ActionResult{Message: fmt.Sprintf("image download or base64 conversion failed: %v", err), Prompt: prompt}
	}

	if err := host.SendImage(ctx, base64.StdEncoding.EncodeToString(data)); err != nil {
		return a.sendFailed(ctx, host, prompt, err)
	}
	log.Info().Str("chat", prefix).Int("bytes", len(data)).Msg("Image downloaded and sent as base64")
	return ActionResult{
		OK:      true,
		Message: fmt.Sprintf("generated and sent image (URL to base64), prompt: %s", prompt),
		Prompt:  prompt,
	}
}

func (a *SendImageAction) generationFailed(ctx context.Context, host Host, prompt string, err error) ActionResult {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		log.Error().Str("chat", host.LogPrefix()).Int("status", apiErr.StatusCode).Str("body", apiErr.Body).Msg("SiliconFlow request failed")
		a.reply(ctx, host, msgGenerateFailed)
		return ActionResult{Message: fmt.Sprintf("image generation failed (SiliconFlow request failed: %s)", apiErr.Body), Prompt: prompt}
	case errors.Is(err, errNoImage):
		log.Error().Err(err).Str("chat", host.LogPrefix()).Msg("Unexpected SiliconFlow result")
		a.reply(ctx, host, msgBadResult)
		return ActionResult{Message: "image generation failed (unexpected SiliconFlow result)", Prompt: prompt}
	default:
		return a.sendFailed(ctx, host, prompt, err)
	}
}

func (a *SendImageAction) sendFailed(ctx context.Context, host Host, prompt string, err error) ActionResult {
	log.Error().Err(err).Str("chat", host.LogPrefix()).Msg("Failed to generate and send image")
	a.reply(ctx, host, msgSendFailed)
	return ActionResult{Message: fmt.Sprintf("image generation or sending failed: %v", err), Prompt: prompt}
}

func (a *SendImageAction) reply(ctx context.Context, host Host, text string) {
	if err := host.SendText(ctx, text); err != nil {
		log.Error().Err(err).Str("chat", host.LogPrefix()).Msg("Failed to send text")
	}
}

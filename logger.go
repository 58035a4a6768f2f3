package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxLoggedBodyBytes = 4096

func initLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func logMessage(userID int64, username, messageType, content string) {
	log.Info().
		Int64("user_id", userID).
		Str("username", username).
		Str("type", messageType).
		Msg(content)
}

func logImageRequest(req ImageGenerationRequest) {
	log.Info().
		Str("model", req.Model).
		Str("prompt", req.Prompt).
		Str("image_size", req.ImageSize).
		Int64("seed", req.Seed).
		Int("steps", req.NumInferenceSteps).
		Float64("guidance_scale", req.GuidanceScale).
		Msg("SiliconFlow request")
}

func logImageResponse(statusCode int, body []byte) {
	ev := log.Debug()
	if statusCode != 200 {
		ev = log.Error()
	}
	ev.Int("status", statusCode).
		Int("body_len", len(body)).
		Str("body", truncateBytes(body, maxLoggedBodyBytes)).
		Msg("SiliconFlow response")
}

func logLLMRequest(model, prompt string) {
	log.Debug().Str("model", model).Str("prompt", prompt).Msg("LLM request")
}

func logLLMResponse(model, response string) {
	log.Debug().Str("model", model).Int("response_len", len(response)).Str("response", response).Msg("LLM response")
}

package main

import "time"

// ActionSettings are the configuration values the send image action reads
type ActionSettings struct {
	APIKey         string
	ImageSize      string
	LLMModel       string
	PromptOptimize bool
	PromptTemplate string
}

// ImageGenerationRequest is the JSON body posted to the SiliconFlow images endpoint
type ImageGenerationRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	ImageSize         string  `json:"image_size"`
	BatchSize         int     `json:"batch_size"`
	Seed              int64   `json:"seed"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// GeneratedImage is what came back from the generation endpoint: either an
// inline base64 payload or a URL to fetch it from.
type GeneratedImage struct {
	Base64 string
	URL    string
}

// ImageRecord is a delivered image kept in the user's history
type ImageRecord struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt"`
	FileID      string    `json:"file_id"`
	Date        time.Time `json:"date"`
}

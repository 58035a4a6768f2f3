package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const (
	siliconFlowURL   = "https://api.siliconflow.cn/v1/images/generations"
	siliconFlowModel = "Kwai-Kolors/Kolors"

	negativePrompt = "lowres, bad anatomy, bad hands, text, error, cropped, worst quality, low quality, normal quality, jpeg artifacts, signature, watermark, username, blurry"

	maxSeed           = 9999999999
	inferenceSteps    = 20
	guidanceScale     = 7.5
	maxErrorBodyBytes = 2048
)

var errNoImage = errors.New("no image in response")

// APIError is returned when the generation endpoint answers with a non-200 status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status code: %d)", e.Body, e.StatusCode)
}

// siliconFlowClient talks to the SiliconFlow images API and downloads the
// images it points at.
type siliconFlowClient struct {
	httpClient *http.Client
	apiKey     string
	url        string
	seed       func() int64
}

func newSiliconFlowClient(apiKey, url string, timeout time.Duration) *siliconFlowClient {
	if url == "" {
		url = siliconFlowURL
	}
	return &siliconFlowClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		url:        url,
		seed:       randomSeed,
	}
}

func randomSeed() int64 {
	return rand.Int63n(maxSeed) + 1
}

func (c *siliconFlowClient) newRequest(prompt, imageSize string) ImageGenerationRequest {
	return ImageGenerationRequest{
		Model:             siliconFlowModel,
		Prompt:            prompt,
		NegativePrompt:    negativePrompt,
		ImageSize:         imageSize,
		BatchSize:         1,
		Seed:              c.seed(),
		NumInferenceSteps: inferenceSteps,
		GuidanceScale:     guidanceScale,
	}
}

// GenerateImage posts one generation request and returns the first image of
// the response, inline or by URL.
func (c *siliconFlowClient) GenerateImage(ctx context.Context, prompt, imageSize string) (*GeneratedImage, error) {
	reqBody := c.newRequest(prompt, imageSize)
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	logImageRequest(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call SiliconFlow API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logImageResponse(resp.StatusCode, body)

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncateBytes(body, maxErrorBodyBytes)}
	}

	return parseGeneratedImage(body)
}

// parseGeneratedImage accepts data[0].image, data[0].url, or a top-level url
// when the data array is absent or empty.
func parseGeneratedImage(body []byte) (*GeneratedImage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode response: %w", errNoImage)
	}
	result := gjson.ParseBytes(body)

	data := result.Get("data")
	if data.IsArray() && len(data.Array()) > 0 {
		first := data.Array()[0]
		if img := first.Get("image"); img.Exists() && img.String() != "" {
			return &GeneratedImage{Base64: img.String()}, nil
		}
		if u := first.Get("url"); u.Exists() && u.String() != "" {
			return &GeneratedImage{URL: u.String()}, nil
		}
		return nil, errNoImage
	}

	if u := result.Get("url"); u.Type == gjson.String && u.String() != "" {
		return &GeneratedImage{URL: u.String()}, nil
	}
	return nil, errNoImage
}

// FetchImage downloads the image behind url.
func (c *siliconFlowClient) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// A URL that does not serve the image counts as an unusable result.
		return nil, fmt.Errorf("%w: image download returned status: %d", errNoImage, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image download returned an empty body")
	}
	return data, nil
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const googleSpeechAPIURL = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleClient implements the Client interface using the Google Cloud
// Speech-to-Text REST API (synchronous recognition).
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// GoogleConfig holds configuration for the Google Speech client.
type GoogleConfig struct {
	APIKey     string
	HTTPClient *http.Client // optional shared client with connection pooling
}

// NewGoogleClient creates a new Google Speech-to-Text client.
func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GoogleClient{
		apiKey:     cfg.APIKey,
		baseURL:    googleSpeechAPIURL,
		httpClient: httpClient,
	}
}

// recognizeRequest represents a speech:recognize request body.
type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognitionAudio struct {
	Content string `json:"content"` // base64-encoded audio
}

// recognizeResponse represents a speech:recognize response body.
type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Recognize transcribes a browser-recorded segment (WebM/Opus at 48kHz).
func (c *GoogleClient) Recognize(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio data provided")
	}

	req := recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   "WEBM_OPUS",
			SampleRateHertz:            48000,
			LanguageCode:               "en-US",
			EnableAutomaticPunctuation: true,
		},
		Audio: recognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "?key=" + c.apiKey

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Google Speech API error: %s - %s", resp.Status, string(respBody))
	}

	var recResp recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&recResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	// Join the top alternative of each result, matching the original
	// transcript assembly.
	var parts []string
	for _, result := range recResp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.Join(parts, "\n"), nil
}

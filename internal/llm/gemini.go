package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient implements the Client interface using Google's Gemini API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	baseDelay  time.Duration
	httpClient *http.Client
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey     string
	Model      string       // e.g., "gemini-2.5-flash"
	HTTPClient *http.Client // optional shared client with connection pooling
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    geminiAPIURL,
		baseDelay:  4 * time.Second,
		httpClient: httpClient,
	}
}

// generateRequest represents a Gemini generateContent request.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse represents a Gemini generateContent response.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

const maxAttempts = 5

// Generate sends the prompt parts as a single user turn. Rate-limit
// responses are retried with exponential backoff before giving up.
func (c *GeminiClient) Generate(ctx context.Context, parts []string) (string, error) {
	delay := c.baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, status, err := c.generateOnce(ctx, parts)
		if err == nil {
			return text, nil
		}
		if status != http.StatusTooManyRequests || attempt == maxAttempts {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay = delay * 3 / 2
	}
	return "", fmt.Errorf("gemini: retries exhausted")
}

func (c *GeminiClient) generateOnce(ctx context.Context, parts []string) (string, int, error) {
	reqParts := make([]part, 0, len(parts))
	for _, p := range parts {
		reqParts = append(reqParts, part{Text: p})
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: reqParts}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", resp.StatusCode, fmt.Errorf("Gemini API error: %s - %s", resp.Status, string(respBody))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("no candidates in response")
	}

	var out bytes.Buffer
	for _, p := range genResp.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String(), 0, nil
}

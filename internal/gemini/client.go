package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrNotConfigured is returned when no API key is set. The key is required
// at call time, not at startup.
var ErrNotConfigured = errors.New("google api key is not configured")

var toneDescriptions = map[string]string{
	"professional": "professional, formal, and business-appropriate",
	"casual":       "casual, friendly, and conversational",
	"technical":    "technical, precise, and using industry terminology",
}

var lengthDescriptions = map[string]string{
	"under-50": "under 50 words, keeping it very concise and to the point",
	"100":      "approximately 100 words, providing a balanced level of detail",
	"200":      "approximately 200 words, with moderate detail and context",
	"500":      "approximately 500 words, with comprehensive detail and explanation",
}

// Client calls the Google Generative Language API over plain HTTP. A
// circuit breaker sheds load once the provider starts failing; an open
// breaker surfaces as a retriable rate-limit error.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:    "gemini",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// SetBaseURL overrides the API endpoint; used by tests.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// Transform rewrites text with the requested tone and length selectors.
func (c *Client) Transform(ctx context.Context, text, tone, length string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	prompt := buildPrompt(text, tone, length)

	out, err := c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("generative provider unavailable, circuit open: %w", err)
	}
	return out, err
}

func buildPrompt(text, tone, length string) string {
	toneDesc, ok := toneDescriptions[tone]
	if !ok {
		toneDesc = toneDescriptions["professional"]
	}
	lengthDesc, ok := lengthDescriptions[length]
	if !ok {
		lengthDesc = lengthDescriptions["100"]
	}

	return `You are an expert communication specialist and text transformation assistant. Your task is to transform the provided text while maintaining its core message and intent.

TRANSFORMATION REQUIREMENTS:
1. Tone: Make the text ` + toneDesc + `
2. Length: Keep it ` + lengthDesc + `
3. Preserve all key information and main points from the original text
4. Ensure grammatical correctness and natural flow
5. Maintain appropriate context and clarity

IMPORTANT INSTRUCTIONS:
- Return ONLY the transformed text
- Do NOT include any explanations, preambles, or meta-commentary
- Do NOT add phrases like "Here's the transformed text:" or similar
- Ensure the output is ready to use directly

Original text to transform:
` + text + `

Transformed text:`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if genResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("content blocked by SAFETY filter: %s", genResp.PromptFeedback.BlockReason)
	}
	if len(genResp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	if genResp.Candidates[0].FinishReason == "SAFETY" {
		return "", errors.New("content blocked by SAFETY filter")
	}

	var sb strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	transformed := strings.TrimSpace(sb.String())
	if transformed == "" {
		return "", errors.New("gemini returned an empty transformation")
	}
	return transformed, nil
}

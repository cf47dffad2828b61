// Package genai implements the text-generation collaborators against the
// Google generative-language REST API: the classification fallback used by
// the classifier and the long-form generation used by the analysis command.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lentoturva/report-etl/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls the generateContent endpoint of a single model.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a text-generation client for the given model
// (e.g. "gemini-2.5-flash"). baseURL overrides the API host for tests; pass
// "" for the real service.
func NewClient(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// ClassifyText asks the model to pick exactly one label from the vocabulary
// for a report excerpt. The raw model answer is returned; the caller owns
// validation against the vocabulary.
func (c *Client) ClassifyText(ctx context.Context, excerpt string, vocabulary []string) (string, error) {
	var b strings.Builder
	b.WriteString("Luokittele seuraava suomalainen onnettomuustutkintaraportti täsmälleen yhteen luokkaan.\n")
	b.WriteString("Sallitut luokat: ")
	b.WriteString(strings.Join(vocabulary, ", "))
	b.WriteString("\nVastaa pelkällä luokan nimellä, ei muuta tekstiä.\n\nRaportti:\n")
	b.WriteString(excerpt)

	answer, err := c.GenerateText(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// request/response shapes of the generateContent endpoint.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends one prompt and returns the first candidate's text.
// HTTP 429 maps to domain.ErrQuotaExhausted so callers can apply their
// backoff policy.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{Temperature: 0},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return "", fmt.Errorf("generate: %w", domain.ErrQuotaExhausted)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate API error: status %d: %s", resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// Package openai implements domain.TextOracle against an OpenAI-compatible
// chat completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/observability"
)

// Client calls an OpenAI-compatible chat completions endpoint. It stays
// deliberately dumb: the instruction prompts live with the enrichment stages
// that own them.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates the oracle client. baseURL points at the full chat
// completions endpoint, e.g. https://api.openai.com/v1/chat/completions.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// InstrumentedOracle wraps a TextOracle with per-stage call metrics. Each
// enrichment stage gets its own wrapper so oracle volume is attributable.
type InstrumentedOracle struct {
	inner   domain.TextOracle
	stage   string
	metrics *observability.Metrics
}

// Instrument decorates the oracle for one named stage.
func Instrument(inner domain.TextOracle, stage string, metrics *observability.Metrics) *InstrumentedOracle {
	return &InstrumentedOracle{inner: inner, stage: stage, metrics: metrics}
}

func (o *InstrumentedOracle) Complete(ctx context.Context, instruction, text string) (string, error) {
	answer, err := o.inner.Complete(ctx, instruction, text)
	if err != nil {
		o.metrics.OracleCalls.WithLabelValues(o.stage, "error").Inc()
		return "", err
	}
	o.metrics.OracleCalls.WithLabelValues(o.stage, "success").Inc()
	return answer, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the instruction as the system message and the report text
// as the user message, returning the raw completion text.
func (c *Client) Complete(ctx context.Context, instruction, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: text},
		},
		// Classification and extraction want determinism, not creativity.
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("oracle API error: status %d: %s", resp.StatusCode, respBody)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("oracle error: %s", payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return payload.Choices[0].Message.Content, nil
}

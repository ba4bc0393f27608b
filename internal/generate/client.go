package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/pdfqa/internal/metrics"
)

const (
	DefaultURL         = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel       = "deepseek-chat"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 4000
	DefaultTimeout     = 60 * time.Second
)

// Options configures a Client. Zero values take the defaults above; a nil
// Temperature means DefaultTemperature, so 0 can be requested explicitly.
type Options struct {
	APIKey      string
	URL         string
	Model       string
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls an OpenAI-style chat completions endpoint.
type Client struct {
	apiKey      string
	url         string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client

	Stats *LLMStats
}

func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		apiKey:      opts.APIKey,
		url:         opts.URL,
		model:       opts.Model,
		temperature: temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		Stats:       NewLLMStats(time.Hour),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Completion is a successful model reply.
type Completion struct {
	Content string
	Body    []byte // raw response body, kept for diagnostics
}

// TransportError covers every failure before the model content is in hand:
// connection errors, timeouts, non-2xx statuses and malformed envelopes.
type TransportError struct {
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation request failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Complete sends prompt as a single user message. It does not retry.
func (c *Client) Complete(ctx context.Context, prompt string) (*Completion, error) {
	start := time.Now()
	comp, err := c.complete(ctx, prompt)
	elapsed := time.Since(start)

	result := "ok"
	if err != nil {
		result = "transport_error"
	}
	c.Stats.Record(elapsed, err == nil)
	metrics.ObserveGeneration(c.model, result, elapsed)
	return comp, err
}

func (c *Client) complete(ctx context.Context, prompt string) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(apiResp.Choices) == 0 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("no choices in response")}
	}

	return &Completion{Content: apiResp.Choices[0].Message.Content, Body: respBody}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

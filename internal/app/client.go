package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client produces model output for a prompt, either as one final blob
// (Complete) or as a lazy sequence of text chunks (Stream). Stream delivers
// each delta through onDelta and also returns the accumulated text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onDelta func(delta string)) (string, error)
}

// ModelClient talks to an Anthropic-compatible messages endpoint.
type ModelClient struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	HTTP      *http.Client
}

type modelRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Stream    bool           `json:"stream,omitempty"`
	Messages  []modelMessage `json:"messages"`
}

type modelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewModelClient(apiKey, model, baseURL string, maxTokens int) *ModelClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1/messages"
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &ModelClient{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
		HTTP:      &http.Client{Timeout: 180 * time.Second},
	}
}

func (c *ModelClient) newRequest(ctx context.Context, prompt string, stream bool) (*http.Request, error) {
	if c.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	payload, err := json.Marshal(modelRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Stream:    stream,
		Messages:  []modelMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (c *ModelClient) Complete(ctx context.Context, prompt string) (string, error) {
	req, err := c.newRequest(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", statusError(resp.StatusCode, body)
	}

	var parsed modelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error: %s", parsed.Error.Message)
	}
	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

func (c *ModelClient) Stream(ctx context.Context, prompt string, onDelta func(delta string)) (string, error) {
	req, err := c.newRequest(ctx, prompt, true)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return "", statusError(resp.StatusCode, body)
	}

	var total strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var evt streamEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			// Tolerate unknown event payloads; the protocol adds types over time.
			continue
		}
		if evt.Error != nil {
			return total.String(), fmt.Errorf("api error: %s", evt.Error.Message)
		}
		if evt.Type == "content_block_delta" && evt.Delta.Text != "" {
			total.WriteString(evt.Delta.Text)
			if onDelta != nil {
				onDelta(evt.Delta.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total.String(), fmt.Errorf("stream interrupted: %w", err)
	}
	return total.String(), nil
}

func statusError(code int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &errResp)
	msg := errResp.Error.Message
	if msg == "" {
		msg = errResp.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("api error: status %d: %s", code, msg)
}

const (
	streamRetryAttempts = 3
	streamRetryDelay    = 500 * time.Millisecond
)

// isRetriableStreamError sniffs rate/quota signals in a failure's text. The
// service reports these in several shapes, so substring matching on the
// message is the practical classifier.
func isRetriableStreamError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{
		"status 429",
		"rate limit",
		"too many requests",
		"quota",
		"overloaded",
		"resource exhausted",
	} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// streamWithRetry runs one model call, retrying retriable-looking failures a
// bounded number of times with doubling delay. onBuffer receives the full
// accumulated text so far on every chunk; a retry restarts the buffer from
// empty so partial output from a failed attempt never leaks through.
func streamWithRetry(ctx context.Context, client Client, prompt string, onBuffer func(total string)) (string, error) {
	delay := streamRetryDelay
	var lastErr error
	for attempt := 0; attempt < streamRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		var buf strings.Builder
		out, err := client.Stream(ctx, prompt, func(delta string) {
			buf.WriteString(delta)
			if onBuffer != nil {
				onBuffer(buf.String())
			}
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetriableStreamError(err) {
			return out, err
		}
	}
	return "", lastErr
}

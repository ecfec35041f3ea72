package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"

	maxResponseBytes = 4 << 20
)

// Client calls an OpenRouter-compatible chat-completion API. Construct one
// at service startup and inject it into the tasks that need it; it is safe
// for concurrent use.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint, mainly for
// tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient constructs a chat-completion client for the given model.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.BadRequestf("OpenRouter API key is empty")
	}
	if model == "" {
		return nil, errors.BadRequestf("model is empty")
	}

	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a system preamble and a user prompt and returns the
// model's reply text.
func (c *Client) Complete(ctx context.Context, preamble, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: preamble},
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Trace(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Trace(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	log.Debugf("llm request: model=%s prompt_len=%d", c.model, len(prompt))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Annotatef(err, "chat completion request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Annotatef(err, "read chat completion response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("chat completion returned status %d: %s", resp.StatusCode, string(raw))
	}

	parsed := chatResponse{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Annotatef(err, "decode chat completion response")
	}
	if parsed.Error != nil {
		return "", errors.Errorf("chat completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.NotFoundf("completion choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

package search

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
	defaultSerperURL = "https://google.serper.dev/search"

	maxSearchResponseBytes = 4 << 20
)

// Result is one organic search hit.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Date     string `json:"date,omitempty"`
}

type searchResponse struct {
	SearchParameters struct {
		Q      string `json:"q"`
		Type   string `json:"type"`
		Engine string `json:"engine"`
	} `json:"searchParameters"`
	Organic []Result `json:"organic"`
}

// SerperClient queries the serper.dev Google search API. Safe for
// concurrent use.
type SerperClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// SerperOption configures a SerperClient.
type SerperOption func(*SerperClient)

// WithEndpoint points the client at a different search endpoint, mainly
// for tests.
func WithEndpoint(endpoint string) SerperOption {
	return func(c *SerperClient) {
		c.endpoint = endpoint
	}
}

// WithSearchHTTPClient replaces the underlying HTTP client.
func WithSearchHTTPClient(httpClient *http.Client) SerperOption {
	return func(c *SerperClient) {
		c.httpClient = httpClient
	}
}

// NewSerperClient constructs a search client.
func NewSerperClient(apiKey string, opts ...SerperOption) (*SerperClient, error) {
	if apiKey == "" {
		return nil, errors.BadRequestf("serper API key is empty")
	}

	c := &SerperClient{
		apiKey:     apiKey,
		endpoint:   defaultSerperURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs a web search and returns the organic results.
func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, errors.Trace(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	log.Debugf("search request: %q", query)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "search request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponseBytes))
	if err != nil {
		return nil, errors.Annotatef(err, "read search response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("search returned status %d: %s", resp.StatusCode, string(raw))
	}

	parsed := searchResponse{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Annotatef(err, "decode search response")
	}

	log.Debugf("search %q returned %d organic results", query, len(parsed.Organic))
	return parsed.Organic, nil
}

// Package ollama is a client for a locally hosted Ollama service,
// covering text generation and embeddings.
package ollama

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

	"golang.org/x/time/rate"
)

const (
	// DefaultHost is the default Ollama API endpoint.
	DefaultHost = "http://localhost:11434"

	// DefaultLLMModel is the default text generation model.
	DefaultLLMModel = "llama3:8b"

	// DefaultEmbedModel is the default embedding model.
	DefaultEmbedModel = "nomic-embed-text"

	// DefaultTimeout allows for slow local inference.
	DefaultTimeout = 2 * time.Minute

	// requestsPerSecond caps the request rate against the local service
	// during batch embedding.
	requestsPerSecond = 20.0

	apiPathGenerate   = "/api/generate"
	apiPathEmbeddings = "/api/embeddings"
	apiPathTags       = "/api/tags"
)

// ErrNoEmbedding is returned when the service responds successfully but
// without an embedding payload. This signals a missing or misconfigured
// embedding model on the service side, not a connectivity problem.
var ErrNoEmbedding = errors.New("no embedding returned: ensure an embedding model is installed and configured")

// Client talks to an Ollama server. Calls are synchronous and are never
// retried; a failed call surfaces immediately.
type Client struct {
	host       string
	llmModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHost sets the Ollama base URL.
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = strings.TrimRight(host, "/")
	}
}

// WithLLMModel sets the text generation model.
func WithLLMModel(model string) Option {
	return func(c *Client) {
		c.llmModel = model
	}
}

// WithEmbedModel sets the embedding model.
func WithEmbedModel(model string) Option {
	return func(c *Client) {
		c.embedModel = model
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Ollama client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		host:       DefaultHost,
		llmModel:   DefaultLLMModel,
		embedModel: DefaultEmbedModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LLMModel returns the configured text generation model.
func (c *Client) LLMModel() string {
	return c.llmModel
}

// EmbedModel returns the configured embedding model.
func (c *Client) EmbedModel() string {
	return c.embedModel
}

// generateRequest is the request body for /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system"`
	Stream bool   `json:"stream"`
}

// generateResponse is the response from /api/generate.
type generateResponse struct {
	Response string `json:"response"`
}

// embedRequest is the request body for /api/embeddings.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the response from /api/embeddings.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// tagsResponse is the response from /api/tags.
type tagsResponse struct {
	Models []modelInfo `json:"models"`
}

type modelInfo struct {
	Name string `json:"name"`
}

// Generate produces text for the given system instructions and prompt.
// The returned text is trimmed and may legitimately be empty.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	var result generateResponse
	err := c.post(ctx, apiPathGenerate, generateRequest{
		Model:  c.llmModel,
		Prompt: prompt,
		System: system,
		Stream: false,
	}, &result)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Response), nil
}

// Embed produces an embedding vector for the given text.
// Returns ErrNoEmbedding when the service answers without a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var result embedResponse
	err := c.post(ctx, apiPathEmbeddings, embedRequest{
		Model:  c.embedModel,
		Prompt: text,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	return result.Embedding, nil
}

// IsAvailable checks if the Ollama server is running and accessible.
func (c *Client) IsAvailable(ctx context.Context) error {
	resp, err := c.get(ctx, apiPathTags)
	if err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	resp.Body.Close()
	return nil
}

// HasModel checks if the named model is available on the server.
func (c *Client) HasModel(ctx context.Context, model string) (bool, error) {
	resp, err := c.get(ctx, apiPathTags)
	if err != nil {
		return false, fmt.Errorf("checking models: %w", err)
	}
	defer resp.Body.Close()

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}

	for _, m := range result.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// get performs a GET request; the caller closes the response body.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// formatErrorBody reads and formats the response body for error messages.
func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return string(respBody)
}

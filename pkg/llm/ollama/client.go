// Package ollama implements llm.Provider on a local or remote Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oceanbase/agentmem-go/pkg/internal/httpjson"
	"github.com/oceanbase/agentmem-go/pkg/llm"
)

const (
	// DefaultBaseURL is the local Ollama address.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "llama3.1:8b"
)

// Client is an Ollama-backed llm.Provider.
type Client struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// Config configures an Ollama client. APIKey is only needed behind an
// authenticating proxy.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates an Ollama client.
// Local models are slow to load, so the default HTTP timeout is two minutes.
//
// Args:
//   - cfg: Client configuration; nil uses the local defaults
//
// Returns:
//   - *Client: Client instance
//   - error: Always nil; kept for symmetry with the other providers
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:  httpjson.NewHTTPClient(cfg.HTTPClient, 120*time.Second),
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Generate sends prompt as a single user message.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - prompt: User input prompt
//   - opts: Optional generation parameters (temperature, max_tokens, top_p, JSON response)
//
// Returns:
//   - string: Generated text content
//   - error: Returns an error if generation fails
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float64  `json:"temperature"`
	NumPredict  int      `json:"num_predict,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// GenerateWithMessages calls /api/chat without streaming.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - messages: Message history, each message with a role and content
//   - opts: Optional generation parameters (temperature, max_tokens, top_p, JSON response)
//
// Returns:
//   - string: Generated text content
//   - error: Returns an error if the request fails or the response holds no text
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	req := chatRequest{
		Model:    c.model,
		Messages: messages,
		Options: chatOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
			TopP:        options.TopP,
			Stop:        options.Stop,
		},
	}
	if options.JSONResponse {
		req.Format = "json"
	}

	var resp chatResponse
	if err := httpjson.Post(ctx, c.client, c.baseURL+"/api/chat", c.apiKey, req, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if resp.Message.Content == "" {
		return "", errors.New("ollama: empty response")
	}
	return resp.Message.Content, nil
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

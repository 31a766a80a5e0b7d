// Package qwen implements llm.Provider on Alibaba Cloud DashScope (Tongyi Qwen).
package qwen

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
	// DefaultBaseURL is the DashScope API address.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "qwen-plus"
)

// Client is a DashScope-backed llm.Provider.
type Client struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// Config configures a Qwen client.
type Config struct {
	// APIKey is the DashScope API key (required).
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

// NewClient creates a Qwen client.
//
// Args:
//   - cfg: Client configuration
//
// Returns:
//   - *Client: Client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("qwen: api key is required")
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
		client:  httpjson.NewHTTPClient(cfg.HTTPClient, 30*time.Second),
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

type generationRequest struct {
	Model      string               `json:"model"`
	Input      generationInput      `json:"input"`
	Parameters generationParameters `json:"parameters"`
}

type generationInput struct {
	Messages []llm.Message `json:"messages"`
}

type generationParameters struct {
	ResultFormat   string          `json:"result_format"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	TopP           float64         `json:"top_p,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type generationResponse struct {
	Output struct {
		Text    string `json:"text"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
}

// GenerateWithMessages calls the DashScope text-generation endpoint.
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

	req := generationRequest{
		Model: c.model,
		Input: generationInput{Messages: messages},
		Parameters: generationParameters{
			ResultFormat: "message",
			Temperature:  options.Temperature,
			MaxTokens:    options.MaxTokens,
			TopP:         options.TopP,
			Stop:         options.Stop,
		},
	}
	if options.JSONResponse {
		req.Parameters.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp generationResponse
	url := fmt.Sprintf("%s/services/aigc/text-generation/generation", c.baseURL)
	if err := httpjson.Post(ctx, c.client, url, c.apiKey, req, &resp); err != nil {
		return "", fmt.Errorf("qwen: %w", err)
	}

	if len(resp.Output.Choices) > 0 {
		return resp.Output.Choices[0].Message.Content, nil
	}
	if resp.Output.Text != "" {
		return resp.Output.Text, nil
	}
	return "", errors.New("qwen: no choices returned")
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

// Package openai implements llm.Provider on the OpenAI chat completions API.
// Any OpenAI-compatible endpoint works by setting BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/oceanbase/agentmem-go/pkg/llm"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Client is an OpenAI-backed llm.Provider.
type Client struct {
	client *openai.Client
	model  string

	// jsonMode reports whether the endpoint accepts response_format.
	jsonMode bool
}

// Config configures an OpenAI client.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// BaseURL overrides the API address for compatible endpoints.
	BaseURL string

	// DisableJSONMode stops the client from sending response_format even when
	// a caller asks for JSON. Some compatible endpoints reject the field.
	DisableJSONMode bool
}

// NewClient creates a new OpenAI client.
//
// Args:
//   - cfg: Client configuration
//
// Returns:
//   - *Client: Client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		jsonMode: !cfg.DisableJSONMode,
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

// GenerateWithMessages runs a chat completion over messages.
// JSON responses use the response_format switch when the model supports it.
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

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
		Stop:        options.Stop,
	}
	if options.JSONResponse && c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the SDK client holds no resources.
func (c *Client) Close() error {
	return nil
}

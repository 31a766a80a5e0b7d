// Package anthropic implements llm.Provider on the Anthropic Messages API
// using the official SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/oceanbase/agentmem-go/pkg/llm"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "claude-3-5-sonnet-20241022"

// jsonInstruction is appended to the system prompt when a caller asks for
// JSON, since the Messages API has no response_format switch.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// Client is an Anthropic-backed llm.Provider.
type Client struct {
	client *anthropic.Client
	model  anthropic.Model
}

// Config configures an Anthropic client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// BaseURL overrides https://api.anthropic.com.
	BaseURL string
}

// NewClient creates an Anthropic client.
//
// Args:
//   - cfg: Client configuration
//
// Returns:
//   - *Client: Client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{client: &client, model: anthropic.Model(model)}, nil
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

// GenerateWithMessages sends messages through the Messages API. System
// messages are lifted into the dedicated system field.
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

	system, rest := llm.SplitSystem(messages)
	if options.JSONResponse {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(options.MaxTokens),
		Messages:    toMessageParams(rest),
		Temperature: anthropic.Float(options.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(options.Stop) > 0 {
		params.StopSequences = options.Stop
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic: no text content returned")
	}
	return sb.String(), nil
}

func toMessageParams(messages []llm.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(block))
			continue
		}
		params = append(params, anthropic.NewUserMessage(block))
	}
	return params
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

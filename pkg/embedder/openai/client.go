// Package openai implements embedder.Provider on the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/oceanbase/agentmem-go/pkg/embedder"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = string(openai.AdaEmbeddingV2)

// Client is an OpenAI embedder.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config configures an OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model defaults to text-embedding-ada-002.
	Model string

	// BaseURL overrides the API address for compatible endpoints.
	BaseURL string

	// Dimensions must match the model output. Defaults to 1536.
	Dimensions int
}

// NewClient creates an OpenAI embedder.
//
// Args:
//   - cfg: Client configuration
//
// Returns:
//   - *Client: Client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai embedder: api key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 1536
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}, nil
}

// Embed returns the vector for text.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - text: Text to embed
//
// Returns:
//   - []float64: Embedding vector of Dimensions() values
//   - error: Returns an error if the request fails
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in a single request.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - texts: Texts to embed
//
// Returns:
//   - [][]float64: One vector per text, in input order
//   - error: Returns an error if any request fails
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedder: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embedder: vector index %d out of range", d.Index)
		}
		out[d.Index] = embedder.ToFloat64(d.Embedding)
	}
	return out, nil
}

// Dimensions returns the configured vector size.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

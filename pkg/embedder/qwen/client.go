// Package qwen implements embedder.Provider on DashScope text embeddings.
package qwen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oceanbase/agentmem-go/pkg/internal/httpjson"
)

const (
	// DefaultBaseURL is the DashScope API address.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "text-embedding-v4"

	// maxBatch is the DashScope limit on texts per request.
	maxBatch = 10
)

// Client is a DashScope embedder.
type Client struct {
	client     *http.Client
	apiKey     string
	model      string
	baseURL    string
	dimensions int
}

// Config configures a Qwen embedder.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
	HTTPClient *http.Client
}

// NewClient creates a Qwen embedder.
//
// Args:
//   - cfg: Client configuration
//
// Returns:
//   - *Client: Client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("qwen embedder: api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
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
		client:     httpjson.NewHTTPClient(cfg.HTTPClient, 30*time.Second),
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
	}, nil
}

type embeddingRequest struct {
	Model      string              `json:"model"`
	Input      embeddingInput      `json:"input"`
	Parameters embeddingParameters `json:"parameters"`
}

type embeddingInput struct {
	Texts []string `json:"texts"`
}

type embeddingParameters struct {
	Dimension int    `json:"dimension,omitempty"`
	TextType  string `json:"text_type"`
}

type embeddingResponse struct {
	Output struct {
		Embeddings []struct {
			TextIndex int       `json:"text_index"`
			Embedding []float64 `json:"embedding"`
		} `json:"embeddings"`
	} `json:"output"`
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

// EmbedBatch embeds texts, splitting into requests of at most ten texts.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - texts: Texts to embed
//
// Returns:
//   - [][]float64: One vector per text, in input order
//   - error: Returns an error if any request fails
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := start + maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := c.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) embedChunk(ctx context.Context, texts []string) ([][]float64, error) {
	req := embeddingRequest{
		Model: c.model,
		Input: embeddingInput{Texts: texts},
		Parameters: embeddingParameters{
			Dimension: c.dimensions,
			TextType:  "document",
		},
	}

	var resp embeddingResponse
	url := fmt.Sprintf("%s/services/embeddings/text-embedding/text-embedding", c.baseURL)
	if err := httpjson.Post(ctx, c.client, url, c.apiKey, req, &resp); err != nil {
		return nil, fmt.Errorf("qwen embedder: %w", err)
	}
	if len(resp.Output.Embeddings) != len(texts) {
		return nil, fmt.Errorf("qwen embedder: got %d vectors for %d texts", len(resp.Output.Embeddings), len(texts))
	}

	vecs := make([][]float64, len(texts))
	for _, e := range resp.Output.Embeddings {
		if e.TextIndex < 0 || e.TextIndex >= len(vecs) {
			return nil, fmt.Errorf("qwen embedder: text index %d out of range", e.TextIndex)
		}
		vecs[e.TextIndex] = e.Embedding
	}
	return vecs, nil
}

// Dimensions returns the configured vector size.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

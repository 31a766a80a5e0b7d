// Package deepseek provides a DeepSeek llm.Provider.
//
// DeepSeek speaks the OpenAI wire protocol, so the client is the OpenAI
// client pointed at the DeepSeek endpoint.
package deepseek

import (
	"github.com/oceanbase/agentmem-go/pkg/llm/openai"
)

const (
	// DefaultBaseURL is the DeepSeek API address.
	DefaultBaseURL = "https://api.deepseek.com"

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "deepseek-chat"
)

// Config configures a DeepSeek client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a DeepSeek client.
//
// Args:
//   - cfg: DeepSeek configuration containing APIKey, Model, and BaseURL
//
// Returns:
//   - *openai.Client: OpenAI-protocol client pointed at DeepSeek
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*openai.Client, error) {
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
	return openai.NewClient(&openai.Config{
		APIKey:  cfg.APIKey,
		Model:   model,
		BaseURL: baseURL,
	})
}

package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oceanbase/agentmem-go/pkg/intelligence"
)

// Memory defaults.
const (
	DefaultMaxTokensLimit = 1200
	DefaultRetrieverK     = 4
	DefaultFetchK         = 100
	DefaultBatchDelimiter = ";"
	DefaultQueryCacheSize = 1024
)

// Config contains the complete configuration for a Manager built by
// NewManagerFromConfig.
//
// Example:
//
//	threshold := 8.0
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-4o-mini",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        Provider:   "openai",
//	        APIKey:     "sk-...",
//	        Model:      "text-embedding-3-small",
//	        Dimensions: 1536,
//	    },
//	    VectorStore: core.VectorStoreConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./agentmem.db",
//	        },
//	    },
//	    Memory: core.MemoryConfig{
//	        ReflectionThreshold: &threshold,
//	    },
//	}
type Config struct {
	// LLM contains LLM provider configuration.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// VectorStore contains vector store configuration.
	VectorStore VectorStoreConfig `json:"vector_store"`

	// Memory tunes scoring, retrieval and reflection.
	Memory MemoryConfig `json:"memory"`

	// Logging configures the slog-backed logger.
	Logging LoggingConfig `json:"logging"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, qwen, anthropic, deepseek, ollama
type LLMConfig struct {
	// Provider is the LLM provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-4o-mini", "qwen-plus").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai, qwen, mock
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g., "text-embedding-3-small", "text-embedding-v4").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors (e.g., 1536, 1024).
	Dimensions int `json:"dimensions,omitempty"`
}

// VectorStoreConfig contains configuration for the vector store.
//
// Supported providers: sqlite, postgres, oceanbase, chromem
type VectorStoreConfig struct {
	// Provider is the vector store provider name.
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, collection_name
	// For OceanBase: host, port, user, password, db_name, collection_name, embedding_model_dims
	// For PostgreSQL: host, port, user, password, db_name, collection_name, embedding_model_dims, ssl_mode
	// chromem takes no settings.
	Config map[string]interface{} `json:"config"`
}

// LoggingConfig configures the logger built by NewManagerFromConfig.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`

	// Format is "text" or "json".
	Format string `json:"format"`
}

// MemoryConfig tunes one Manager. Zero values are replaced by defaults in
// Validate.
type MemoryConfig struct {
	// AgentID names the memory stream. Empty generates a UUID.
	AgentID string `json:"agent_id"`

	// ImportanceWeight scales ratings: importance = rating/10 * weight.
	// Must be in (0, 1]; zero selects the default 0.15.
	ImportanceWeight float64 `json:"importance_weight"`

	// DecayRate is the hourly recency decay rate, in (0, 1); zero selects
	// the default 0.01.
	DecayRate float64 `json:"decay_rate"`

	// DecayModel is "exponential" (default) or "ebbinghaus".
	DecayModel string `json:"decay_model"`

	// ReflectionThreshold triggers reflection once the aggregate importance
	// exceeds it. Nil disables automatic reflection.
	ReflectionThreshold *float64 `json:"reflection_threshold,omitempty"`

	// ReflectionLastK is how many recent memories a pass reads. Default 50.
	ReflectionLastK int `json:"reflection_last_k"`

	// ReflectionCooldown keeps automatic reflection off for this long after
	// a pass completes.
	ReflectionCooldown Duration `json:"reflection_cooldown"`

	// MaxTokensLimit bounds MemoriesUntilTokenLimit. Default 1200.
	MaxTokensLimit int `json:"max_tokens_limit"`

	// RetrieverK is how many memories FetchMemories returns. Default 4.
	RetrieverK int `json:"retriever_k"`

	// FetchK is how many similarity candidates are re-ranked. Default 100.
	FetchK int `json:"fetch_k"`

	// IncludeImportanceInScore adds importance to the combined score.
	IncludeImportanceInScore bool `json:"include_importance_in_score"`

	// BatchDelimiter splits AddMemories input. Default ";".
	BatchDelimiter string `json:"batch_delimiter"`

	// StrictRatings makes unparsable ratings an error instead of 0.
	StrictRatings bool `json:"strict_ratings"`

	// QueryCacheSize bounds the query embedding cache. Default 1024.
	QueryCacheSize int64 `json:"query_cache_size"`

	// TokenizerModel selects the tiktoken encoding. Empty uses cl100k_base.
	TokenizerModel string `json:"tokenizer_model"`
}

// Duration is a time.Duration that reads JSON as "90s" style strings or as
// a number of seconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration: %s", b)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Validate fills defaults for unset fields and rejects values that cannot
// work.
func (c *MemoryConfig) Validate() error {
	switch {
	case c.ImportanceWeight == 0:
		c.ImportanceWeight = intelligence.DefaultImportanceWeight
	case c.ImportanceWeight < 0 || c.ImportanceWeight > 1:
		return fmt.Errorf("%w: importance weight %v outside (0, 1]", ErrInvalidConfig, c.ImportanceWeight)
	}
	switch {
	case c.DecayRate == 0:
		c.DecayRate = intelligence.DefaultDecayRate
	case c.DecayRate < 0 || c.DecayRate >= 1:
		return fmt.Errorf("%w: decay rate %v outside (0, 1)", ErrInvalidConfig, c.DecayRate)
	}
	switch c.DecayModel {
	case "":
		c.DecayModel = intelligence.DecayModelExponential
	case intelligence.DecayModelExponential, intelligence.DecayModelEbbinghaus:
	default:
		return fmt.Errorf("%w: unknown decay model %q", ErrInvalidConfig, c.DecayModel)
	}
	if c.ReflectionLastK <= 0 {
		c.ReflectionLastK = intelligence.DefaultReflectionLastK
	}
	if c.ReflectionCooldown < 0 {
		return fmt.Errorf("%w: negative reflection cooldown", ErrInvalidConfig)
	}
	if c.MaxTokensLimit <= 0 {
		c.MaxTokensLimit = DefaultMaxTokensLimit
	}
	if c.RetrieverK <= 0 {
		c.RetrieverK = DefaultRetrieverK
	}
	if c.FetchK <= 0 {
		c.FetchK = DefaultFetchK
	}
	if c.FetchK < c.RetrieverK {
		c.FetchK = c.RetrieverK
	}
	if c.BatchDelimiter == "" {
		c.BatchDelimiter = DefaultBatchDelimiter
	}
	if c.QueryCacheSize <= 0 {
		c.QueryCacheSize = DefaultQueryCacheSize
	}
	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, oceanbase, postgres, chromem)
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD, etc.
//   - SQLITE_PATH, SQLITE_COLLECTION
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL, EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - MEMORY_AGENT_ID, MEMORY_IMPORTANCE_WEIGHT, MEMORY_DECAY_RATE, MEMORY_DECAY_MODEL
//   - MEMORY_REFLECTION_THRESHOLD, MEMORY_REFLECTION_LAST_K, MEMORY_REFLECTION_COOLDOWN
//   - MEMORY_MAX_TOKENS_LIMIT, MEMORY_RETRIEVER_K, MEMORY_FETCH_K, MEMORY_TOKENIZER_MODEL
//   - LOG_LEVEL, LOG_FORMAT
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")
	vectorStoreConfig := make(map[string]interface{})

	switch provider {
	case "oceanbase":
		port, _ := strconv.Atoi(getEnvOrDefault("OCEANBASE_PORT", "2881"))
		dims, _ := strconv.Atoi(getEnvOrDefault("OCEANBASE_EMBEDDING_MODEL_DIMS", "0"))

		vectorStoreConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			"port":                 port,
			"user":                 getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			"password":             os.Getenv("OCEANBASE_PASSWORD"),
			"db_name":              getEnvOrDefault("OCEANBASE_DATABASE", "agentmem"),
			"collection_name":      getEnvOrDefault("OCEANBASE_COLLECTION", "memories"),
			"embedding_model_dims": dims,
		}
	case "sqlite":
		vectorStoreConfig = map[string]interface{}{
			"db_path":         getEnvOrDefault("SQLITE_PATH", "./agentmem.db"),
			"collection_name": getEnvOrDefault("SQLITE_COLLECTION", "memories"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		dims, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_EMBEDDING_MODEL_DIMS", "0"))

		vectorStoreConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":                 port,
			"user":                 getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":             os.Getenv("POSTGRES_PASSWORD"),
			"db_name":              getEnvOrDefault("POSTGRES_DATABASE", "agentmem"),
			"collection_name":      getEnvOrDefault("POSTGRES_COLLECTION", "memories"),
			"embedding_model_dims": dims,
			"ssl_mode":             getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	}

	llmProvider := getEnvOrDefault("LLM_PROVIDER", "openai")
	var llmBaseURL string
	var defaultModel string

	switch llmProvider {
	case "deepseek":
		llmBaseURL = getEnvOrDefault("DEEPSEEK_LLM_BASE_URL", "https://api.deepseek.com")
		defaultModel = "deepseek-chat"
	case "qwen":
		llmBaseURL = os.Getenv("QWEN_LLM_BASE_URL")
		defaultModel = "qwen-plus"
	case "ollama":
		llmBaseURL = getEnvOrDefault("OLLAMA_LLM_BASE_URL", "http://localhost:11434")
		defaultModel = "llama3.1"
	case "anthropic":
		llmBaseURL = os.Getenv("ANTHROPIC_LLM_BASE_URL")
		defaultModel = "claude-3-5-sonnet-20240620"
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
		defaultModel = "gpt-4o-mini"
	}

	embedderProvider := getEnvOrDefault("EMBEDDING_PROVIDER", "qwen")
	embedderModel := os.Getenv("EMBEDDING_MODEL")
	embedderDims, _ := strconv.Atoi(os.Getenv("EMBEDDING_DIMS"))

	var embedderBaseURL string
	switch embedderProvider {
	case "qwen":
		embedderBaseURL = getEnvOrDefault("QWEN_EMBEDDING_BASE_URL", "https://dashscope.aliyuncs.com/api/v1")
		if embedderModel == "" {
			embedderModel = "text-embedding-v4"
		}
	case "openai":
		embedderBaseURL = getEnvOrDefault("OPENAI_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
		if embedderModel == "" {
			embedderModel = "text-embedding-3-small"
		}
	default:
		embedderBaseURL = os.Getenv("EMBEDDING_BASE_URL")
	}

	memory, err := memoryConfigFromEnv()
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromEnv", err)
	}

	config := &Config{
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", defaultModel),
			BaseURL:  llmBaseURL,
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      embedderModel,
			BaseURL:    embedderBaseURL,
			Dimensions: embedderDims,
		},
		VectorStore: VectorStoreConfig{
			Provider: provider,
			Config:   vectorStoreConfig,
		},
		Memory: memory,
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}
	return config, nil
}

// memoryConfigFromEnv reads the MEMORY_* variables. Unset variables keep
// their zero value so Validate applies the default.
func memoryConfigFromEnv() (MemoryConfig, error) {
	var cfg MemoryConfig
	var err error

	cfg.AgentID = os.Getenv("MEMORY_AGENT_ID")
	cfg.DecayModel = os.Getenv("MEMORY_DECAY_MODEL")
	cfg.TokenizerModel = os.Getenv("MEMORY_TOKENIZER_MODEL")
	cfg.BatchDelimiter = os.Getenv("MEMORY_BATCH_DELIMITER")
	cfg.IncludeImportanceInScore = os.Getenv("MEMORY_INCLUDE_IMPORTANCE") == "true"
	cfg.StrictRatings = os.Getenv("MEMORY_STRICT_RATINGS") == "true"

	if cfg.ImportanceWeight, err = envFloat("MEMORY_IMPORTANCE_WEIGHT"); err != nil {
		return cfg, err
	}
	if cfg.DecayRate, err = envFloat("MEMORY_DECAY_RATE"); err != nil {
		return cfg, err
	}
	if v := os.Getenv("MEMORY_REFLECTION_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: MEMORY_REFLECTION_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		cfg.ReflectionThreshold = &threshold
	}
	if v := os.Getenv("MEMORY_REFLECTION_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: MEMORY_REFLECTION_COOLDOWN: %v", ErrInvalidConfig, err)
		}
		cfg.ReflectionCooldown = Duration(d)
	}
	if cfg.ReflectionLastK, err = envInt("MEMORY_REFLECTION_LAST_K"); err != nil {
		return cfg, err
	}
	if cfg.MaxTokensLimit, err = envInt("MEMORY_MAX_TOKENS_LIMIT"); err != nil {
		return cfg, err
	}
	if cfg.RetrieverK, err = envInt("MEMORY_RETRIEVER_K"); err != nil {
		return cfg, err
	}
	if cfg.FetchK, err = envInt("MEMORY_FETCH_K"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate checks that every provider is named and fills memory defaults.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: llm provider is required", ErrInvalidConfig))
	}
	if c.Embedder.Provider == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: embedder provider is required", ErrInvalidConfig))
	}
	if c.VectorStore.Provider == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: vector store provider is required", ErrInvalidConfig))
	}
	return NewMemoryError("Validate", c.Memory.Validate())
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envFloat(key string) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return f, nil
}

func envInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

// configString reads a string setting from a provider config map.
func configString(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

// configInt reads an integer setting. JSON numbers arrive as float64.
func configInt(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

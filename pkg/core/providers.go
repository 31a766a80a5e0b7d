package core

import (
	"fmt"

	"github.com/oceanbase/agentmem-go/pkg/embedder"
	mockEmbedder "github.com/oceanbase/agentmem-go/pkg/embedder/mock"
	openaiEmbedder "github.com/oceanbase/agentmem-go/pkg/embedder/openai"
	qwenEmbedder "github.com/oceanbase/agentmem-go/pkg/embedder/qwen"
	"github.com/oceanbase/agentmem-go/pkg/llm"
	anthropicLLM "github.com/oceanbase/agentmem-go/pkg/llm/anthropic"
	deepseekLLM "github.com/oceanbase/agentmem-go/pkg/llm/deepseek"
	ollamaLLM "github.com/oceanbase/agentmem-go/pkg/llm/ollama"
	openaiLLM "github.com/oceanbase/agentmem-go/pkg/llm/openai"
	qwenLLM "github.com/oceanbase/agentmem-go/pkg/llm/qwen"
	"github.com/oceanbase/agentmem-go/pkg/storage"
	chromemStore "github.com/oceanbase/agentmem-go/pkg/storage/chromem"
	"github.com/oceanbase/agentmem-go/pkg/storage/oceanbase"
	postgresStore "github.com/oceanbase/agentmem-go/pkg/storage/postgres"
	sqliteStore "github.com/oceanbase/agentmem-go/pkg/storage/sqlite"
)

// initStorage initializes the storage backend. dims is the embedder's
// vector size, used when the config does not set embedding_model_dims.
func initStorage(cfg VectorStoreConfig, dims int) (storage.VectorStore, error) {
	c := cfg.Config
	if v := configInt(c, "embedding_model_dims", 0); v > 0 {
		dims = v
	}

	var (
		store storage.VectorStore
		err   error
	)
	switch cfg.Provider {
	case "oceanbase":
		store, err = oceanbase.NewClient(&oceanbase.Config{
			Host:               configString(c, "host", "127.0.0.1"),
			Port:               configInt(c, "port", 2881),
			User:               configString(c, "user", "root@sys"),
			Password:           configString(c, "password", ""),
			DBName:             configString(c, "db_name", "agentmem"),
			CollectionName:     configString(c, "collection_name", "memories"),
			EmbeddingModelDims: dims,
		})
	case "sqlite":
		store, err = sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:         configString(c, "db_path", "./agentmem.db"),
			CollectionName: configString(c, "collection_name", "memories"),
		})
	case "postgres":
		store, err = postgresStore.NewClient(&postgresStore.Config{
			Host:               configString(c, "host", "localhost"),
			Port:               configInt(c, "port", 5432),
			User:               configString(c, "user", "postgres"),
			Password:           configString(c, "password", ""),
			DBName:             configString(c, "db_name", "agentmem"),
			CollectionName:     configString(c, "collection_name", "memories"),
			EmbeddingModelDims: dims,
			SSLMode:            configString(c, "ssl_mode", "disable"),
		})
	case "chromem":
		store = chromemStore.New()
	default:
		return nil, NewMemoryError("initStorage", fmt.Errorf("%w: unknown vector store %q", ErrInvalidConfig, cfg.Provider))
	}
	if err != nil {
		return nil, NewMemoryError("initStorage", wrapKind(ErrStorageOperation, err))
	}
	return store, nil
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	var (
		provider llm.Provider
		err      error
	)
	switch cfg.Provider {
	case "openai":
		provider, err = openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "qwen":
		provider, err = qwenLLM.NewClient(&qwenLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "deepseek":
		provider, err = deepseekLLM.NewClient(&deepseekLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		provider, err = ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		provider, err = anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewMemoryError("initLLM", fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, cfg.Provider))
	}
	if err != nil {
		return nil, NewMemoryError("initLLM", err)
	}
	return provider, nil
}

// initEmbedder initializes the embedder provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	var (
		provider embedder.Provider
		err      error
	)
	switch cfg.Provider {
	case "openai":
		provider, err = openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "qwen":
		provider, err = qwenEmbedder.NewClient(&qwenEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "mock":
		provider = mockEmbedder.New(cfg.Dimensions)
	default:
		return nil, NewMemoryError("initEmbedder", fmt.Errorf("%w: unknown embedder %q", ErrInvalidConfig, cfg.Provider))
	}
	if err != nil {
		return nil, NewMemoryError("initEmbedder", err)
	}
	return provider, nil
}

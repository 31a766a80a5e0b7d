package postgres

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/storage"
	"github.com/oceanbase/agentmem-go/pkg/storage/storagetest"
)

func TestVectorStringRoundTrip(t *testing.T) {
	assert.Equal(t, "[]", vectorToString(nil))
	assert.Equal(t, "[0.5,-1,0.25]", vectorToString([]float64{0.5, -1, 0.25}))

	v, err := parseVectorString("[0.5, -1,0.25]")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 0.25}, v)

	v, err = parseVectorString("[]")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = parseVectorString("[a,b]")
	assert.Error(t, err)
}

func TestNewClient_RequiresDimensions(t *testing.T) {
	_, err := NewClient(&Config{Host: "127.0.0.1", Port: 5432})
	assert.Error(t, err)
}

func TestPostgresClient(t *testing.T) {
	_ = godotenv.Load(filepath.Join("..", "..", "..", ".env"))

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		t.Skip("Skipping PostgreSQL test: POSTGRES_PASSWORD not set")
	}
	host := getenv("POSTGRES_HOST", "127.0.0.1")
	port, err := strconv.Atoi(getenv("POSTGRES_PORT", "5432"))
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: invalid POSTGRES_PORT: %v", err)
	}

	storagetest.Run(t, func(t *testing.T) storage.VectorStore {
		name := "test_memories_" + strings.ToLower(strconv.FormatInt(time.Now().UnixNano(), 36))
		client, err := NewClient(&Config{
			Host:               host,
			Port:               port,
			User:               getenv("POSTGRES_USER", "postgres"),
			Password:           password,
			DBName:             getenv("POSTGRES_DATABASE", "agentmem_test"),
			CollectionName:     name,
			EmbeddingModelDims: 3,
		})
		require.NoError(t, err)
		return client
	})
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

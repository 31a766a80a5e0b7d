package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/agentmem-go/pkg/storage"
	sqliteStore "github.com/oceanbase/agentmem-go/pkg/storage/sqlite"
	"github.com/oceanbase/agentmem-go/pkg/storage/storagetest"
)

func setupSQLiteTest(t *testing.T) storage.VectorStore {
	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath:         filepath.Join(t.TempDir(), "agentmem.db"),
		CollectionName: "memories",
	})
	require.NoError(t, err)
	return store
}

func TestSQLiteClient(t *testing.T) {
	storagetest.Run(t, setupSQLiteTest)
}

func TestSQLiteClient_InMemory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.VectorStore {
		store, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: ":memory:"})
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteClient_RequiresPath(t *testing.T) {
	_, err := sqliteStore.NewClient(&sqliteStore.Config{})
	assert.Error(t, err)

	_, err = sqliteStore.NewClient(nil)
	assert.Error(t, err)
}

func TestSQLiteClient_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "agentmem.db")
	store, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: path})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
	assert.FileExists(t, path)
}

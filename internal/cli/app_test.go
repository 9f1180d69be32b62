package cli

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/config"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
)

const testKeyEnv = "TYPEINDEX_APP_TEST_KEY"

func testConfig(backend string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimension = 256
	cfg.Embedding.APIKeyEnv = testKeyEnv
	cfg.Storage.Backend = backend
	cfg.Index.MinExpectedIndexed = 2
	return cfg
}

func writeCatalog(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "types", "contact.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`
- semantic_type: EMAIL
  description: email address of a customer
  built_in: true
- semantic_type: POSTCODE
  description: postal zip code
`), 0644))
}

func TestApp_ConnectIndexesCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir)
	t.Setenv(testKeyEnv, "")

	app, err := NewApp(dir, testConfig("memory"), logging.NewDiscard())
	require.NoError(t, err)
	defer app.Close()

	assert.False(t, app.Connected())
	assert.ErrorIs(t, app.Connect(""), domain.ErrEmbeddingUnavailable)

	require.NoError(t, app.Connect("sk-test"))
	app.Lifecycle.Wait()
	assert.True(t, app.Connected())

	count, err := app.Search.StoredVectorCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, domain.StateReady, app.Lifecycle.State())

	best, err := app.Search.FindMostSimilarType(domain.GenerationRequest{Description: "email address of a customer"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "EMAIL", best.SemanticType)

	app.Disconnect()
	assert.False(t, app.Connected())
	count, err = app.Search.StoredVectorCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "in-memory mode does not see durable vectors")

	require.NoError(t, app.Connect("sk-test"))
	app.Lifecycle.Wait()
	count, err = app.Search.StoredVectorCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestApp_BoltSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir)
	t.Setenv(testKeyEnv, "sk-env")

	app, err := NewApp(dir, testConfig("bolt"), logging.NewDiscard())
	require.NoError(t, err)
	require.NoError(t, app.Connect(""))
	require.NoError(t, app.Close())

	_, err = os.Stat(filepath.Join(dir, ".typeindex", "index.db"))
	require.NoError(t, err)

	reopened, err := NewApp(dir, testConfig("bolt"), logging.NewDiscard())
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.openBackend())

	count, err := reopened.Search.StoredVectorCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	m, err := reopened.Vectors.Manifest()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "mock", m.ModelID)
}

func TestApp_PassLockAcrossApps(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir)
	t.Setenv(testKeyEnv, "sk-env")

	first, err := NewApp(dir, testConfig("bolt"), logging.NewDiscard())
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.openBackend())
	require.NoError(t, first.Gateway.Initialize())

	second, err := NewApp(dir, testConfig("bolt"), logging.NewDiscard())
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.openBackend(), "a second app can open the same store")
	require.NoError(t, second.Gateway.Initialize())

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	first.Lifecycle.OnProgress(func(indexed, total int) {
		once.Do(func() {
			close(started)
			<-release
		})
	})

	done := make(chan error, 1)
	go func() { done <- first.Lifecycle.RebuildIndex() }()
	<-started

	err = second.Lifecycle.RebuildIndex()
	assert.ErrorIs(t, err, domain.ErrRebuildFailed)
	assert.ErrorIs(t, err, domain.ErrPassInProgress)

	count, err := second.Search.StoredVectorCount()
	require.NoError(t, err, "reads go through while the other app holds the pass lock")
	assert.Zero(t, count)

	close(release)
	require.NoError(t, <-done)

	require.NoError(t, second.Lifecycle.RebuildIndex())
	count, err = first.Search.StoredVectorCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewApp_UnknownProvider(t *testing.T) {
	cfg := testConfig("memory")
	cfg.Embedding.Provider = "bogus"
	_, err := NewApp(t.TempDir(), cfg, nil)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(0))
	assert.Equal(t, "42s", formatDuration(42e9))
	assert.Equal(t, "2m5s", formatDuration(125e9))
	assert.Equal(t, "1h1m", formatDuration(3660e9))
}

package cli

import (
	"fmt"
	"sync"

	"github.com/gofrs/flock"

	"typeindex/config"
	"typeindex/internal/adapter/cache"
	"typeindex/internal/adapter/catalog"
	"typeindex/internal/adapter/credentials"
	"typeindex/internal/adapter/embedding"
	"typeindex/internal/adapter/memstore"
	"typeindex/internal/adapter/retriever"
	"typeindex/internal/adapter/store"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
	"typeindex/internal/usecase"
)

// App wires the index components for one working directory.
type App struct {
	Config    *config.Config
	Dir       string
	Logger    *logging.Logger
	Creds     *credentials.Store
	Gateway   *embedding.Gateway
	Vectors   *store.HybridVectorStore
	Search    *usecase.SearchService
	Lifecycle *usecase.LifecycleManager

	mu      sync.Mutex
	backend port.ObjectStore
	bolt    *store.BoltObjectStore
}

// NewApp builds the component graph. Nothing is opened until Connect.
func NewApp(dir string, cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewDiscard()
	}

	creds := credentials.FromEnv(cfg.Embedding.APIKeyEnv)
	provider, err := newProvider(cfg.Embedding, creds)
	if err != nil {
		return nil, err
	}

	embCache := cache.NewEmbeddingCache(cfg.Embedding.CacheSize, cfg.Embedding.CacheTTL)
	gateway := embedding.NewGateway(provider, embCache, logger)
	vectors := store.NewHybridVectorStore(memstore.NewVectorStore(), store.ComputeConfigHash(cfg), logger)
	search := usecase.NewSearchService(gateway, vectors, retriever.NewRanker(), cfg.Search, logger)
	types := catalog.NewFileCatalog(cfg.CatalogDir(dir), cfg.Catalog.Includes, cfg.Catalog.Excludes, logger)

	lifecycle := usecase.NewLifecycleManager(cfg.Index, search, types, gateway, creds, logger)
	lifecycle.SetDriftChecker(vectors)

	return &App{
		Config:    cfg,
		Dir:       dir,
		Logger:    logger,
		Creds:     creds,
		Gateway:   gateway,
		Vectors:   vectors,
		Search:    search,
		Lifecycle: lifecycle,
	}, nil
}

func newProvider(cfg config.EmbeddingConfig, creds *credentials.Store) (port.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		return embedding.NewOpenAICompatibleEmbedder(creds, cfg.Model, cfg.BaseURL, cfg.Dimension), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Model, cfg.BaseURL), nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Dimension, creds), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// Connect stores apiKey (when given), opens the durable backend and starts
// background reconciliation.
func (a *App) Connect(apiKey string) error {
	if apiKey != "" {
		a.Creds.Set(apiKey)
	}
	if !a.Creds.Available() {
		return fmt.Errorf("%w: no API key", domain.ErrEmbeddingUnavailable)
	}

	if err := a.openBackend(); err != nil {
		return err
	}
	if err := a.Gateway.Initialize(); err != nil {
		return err
	}
	a.Lifecycle.OnConnected()
	return nil
}

func (a *App) openBackend() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.backend != nil {
		a.Vectors.Connect(a.backend)
		return nil
	}

	switch a.Config.Storage.Backend {
	case "memory":
		a.backend = memstore.NewObjectStore()
	case "bolt", "":
		if err := a.Config.EnsureDataDir(a.Dir); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		bolt, err := store.NewBoltObjectStore(a.Config.IndexDBPath(a.Dir))
		if err != nil {
			return err
		}
		a.bolt = bolt
		a.backend = bolt
		a.Lifecycle.SetPassLocker(flock.New(a.Config.LockPath(a.Dir)))
	default:
		return fmt.Errorf("unsupported storage backend: %s", a.Config.Storage.Backend)
	}

	a.Vectors.Connect(a.backend)
	return nil
}

// Disconnect clears credentials and reverts to the in-memory store. The
// durable backend handle is kept so a later Connect sees the same data.
func (a *App) Disconnect() {
	a.Creds.Clear()
	a.Vectors.Disconnect()
	a.Gateway.Reset()
}

func (a *App) Connected() bool {
	return a.Creds.Available() && a.Vectors.Durable()
}

// Close waits for background passes and closes the durable backend.
func (a *App) Close() error {
	a.Lifecycle.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bolt != nil {
		err := a.bolt.Close()
		a.bolt = nil
		a.backend = nil
		return err
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the type index.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig controls the index lifecycle.
type IndexConfig struct {
	Enabled          bool `yaml:"enabled"`
	RebuildOnStartup bool `yaml:"rebuild_on_startup"`
	// Stores holding at least this many vectors are treated as initialized.
	MinExpectedIndexed int `yaml:"min_expected_indexed"`
}

// SearchConfig holds ranking defaults.
type SearchConfig struct {
	DefaultThreshold float64 `yaml:"default_threshold"`
	LLMThreshold     float64 `yaml:"llm_threshold"`
	TopK             int     `yaml:"top_k"`
	TopKForLLM       int     `yaml:"top_k_for_llm"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`    // "openai", "ollama", "mock"
	Model     string        `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// StorageConfig selects the durable backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "bolt" or "memory"
	Path    string `yaml:"path"`    // empty means .typeindex/index.db
}

// CatalogConfig locates the semantic type definition files.
type CatalogConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Enabled:            true,
			RebuildOnStartup:   false,
			MinExpectedIndexed: 132,
		},
		Search: SearchConfig{
			DefaultThreshold: 0.35,
			LLMThreshold:     0.85,
			TopK:             5,
			TopKForLLM:       3,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
		},
		Storage: StorageConfig{
			Backend: "bolt",
		},
		Catalog: CatalogConfig{
			Dir:      "types",
			Includes: []string{"**/*.yaml", "**/*.yml", "**/*.json"},
			Excludes: []string{"**/.git/**", "**/_*"},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for typeindex.yaml).
// A .env file in dir, if present, is loaded into the environment first.
func LoadFromDir(dir string) (*Config, error) {
	LoadEnv(dir)

	path := filepath.Join(dir, "typeindex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".typeindex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv loads dir/.env without overriding variables already set.
func LoadEnv(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func (c *Config) IndexDBPath(dir string) string {
	if c.Storage.Path != "" {
		if filepath.IsAbs(c.Storage.Path) {
			return c.Storage.Path
		}
		return filepath.Join(dir, c.Storage.Path)
	}
	return filepath.Join(dir, ".typeindex", "index.db")
}

// LockPath returns the lock file guarding full indexing passes.
func (c *Config) LockPath(dir string) string {
	return c.IndexDBPath(dir) + ".lock"
}

// CatalogDir resolves the catalog directory against dir.
func (c *Config) CatalogDir(dir string) string {
	if filepath.IsAbs(c.Catalog.Dir) {
		return c.Catalog.Dir
	}
	return filepath.Join(dir, c.Catalog.Dir)
}

// EnsureDataDir ensures the directory holding the index database exists.
func (c *Config) EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.IndexDBPath(dir)), 0755)
}

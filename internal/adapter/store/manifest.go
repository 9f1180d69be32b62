package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"typeindex/config"
	"typeindex/internal/domain"
	"typeindex/internal/port"
)

// CurrentSchemaVersion is the current vector record layout.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// ManifestKey sits outside the vector prefix so listings never see it.
const ManifestKey = "index-meta/manifest.json"

// Manifest records what produced the vectors in a backend.
type Manifest struct {
	SchemaVersion int       `json:"schemaVersion"`
	ModelID       string    `json:"modelId"`
	ConfigHash    string    `json:"configHash"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DriftResult describes whether stored vectors still match the running setup.
type DriftResult struct {
	NeedsRebuild bool
	Reason       string
}

// ComputeConfigHash computes a hash of index-relevant configuration.
// Changes to this hash indicate the index should be rebuilt.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		BaseURL   string `json:"base_url"`
		Dimension int    `json:"dimension"`
	}{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// LoadManifest returns nil without error when no manifest has been written.
func LoadManifest(objects port.ObjectStore) (*Manifest, error) {
	data, err := objects.Get(ManifestKey)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

func SaveManifest(objects port.ObjectStore, m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return objects.Put(ManifestKey, data)
}

// CheckManifest compares a stored manifest with the running model and config.
// A missing manifest is not drift: the next full pass writes one.
func CheckManifest(m *Manifest, modelID, configHash string) DriftResult {
	switch {
	case m == nil:
		return DriftResult{}
	case m.SchemaVersion != CurrentSchemaVersion:
		return DriftResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("schema version changed (v%d -> v%d)", m.SchemaVersion, CurrentSchemaVersion),
		}
	case m.ModelID != modelID:
		return DriftResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("embedding model changed (%s -> %s)", m.ModelID, modelID),
		}
	case configHash != "" && m.ConfigHash != "" && m.ConfigHash != configHash:
		return DriftResult{NeedsRebuild: true, Reason: "embedding configuration changed"}
	default:
		return DriftResult{}
	}
}

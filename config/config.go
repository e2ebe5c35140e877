// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/canonit/ai"
	"github.com/poiesic/canonit/chunk"
	"github.com/poiesic/canonit/manifest"
	"github.com/poiesic/canonit/validate"
)

// Store backends selectable in StoreConfig.
const (
	BackendBadger   = "badger"
	BackendPgvector = "pgvector"
)

// ChunkingConfig bounds the token windows documents are split into.
// Zero fields take package defaults when loaded from file.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
	MinTokens     int `yaml:"min_tokens"`
}

// ValidationConfig holds the screening thresholds for external content.
type ValidationConfig struct {
	RelevanceThreshold float32 `yaml:"relevance_threshold"`
	AlignmentThreshold float32 `yaml:"alignment_threshold"`
	DuplicateThreshold float32 `yaml:"duplicate_threshold"`
	ContradictionFloor float32 `yaml:"contradiction_floor"`
	OverlapFloor       float32 `yaml:"overlap_floor"`
}

// EmbeddingConfig selects and configures the embedder. Model identifiers of
// the form "hash-<dims>" select the built-in offline hashing embedder;
// anything else goes to the OpenAI-compatible client at Host.
type EmbeddingConfig struct {
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	Host              string  `yaml:"host,omitempty"`
	APIKeyEnv         string  `yaml:"api_key_env,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// StoreConfig selects the vector store backend. Path is the data directory:
// the badger store and the manifest ledger both live under it. Pgvector
// additionally needs a connection string and still uses Path for the
// manifest.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	PostgresURL string `yaml:"postgres_url,omitempty"`
}

// Config is the root canonit configuration.
type Config struct {
	Chunking      ChunkingConfig   `yaml:"chunking"`
	Validation    ValidationConfig `yaml:"validation"`
	Embedding     EmbeddingConfig  `yaml:"embedding"`
	Store         StoreConfig      `yaml:"store"`
	TopicKeywords int              `yaml:"topic_keywords"`
}

// Default returns the configuration used when no file exists: offline
// hashing embedder, local badger store, package-default bounds and
// thresholds.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxTokens:     chunk.DefaultMaxTokens,
			OverlapTokens: chunk.DefaultOverlapTokens,
			MinTokens:     chunk.DefaultMinTokens,
		},
		Validation: ValidationConfig{
			RelevanceThreshold: validate.DefaultRelevanceThreshold,
			AlignmentThreshold: validate.DefaultAlignmentThreshold,
			DuplicateThreshold: validate.DefaultDuplicateThreshold,
			ContradictionFloor: validate.DefaultContradictionFloor,
			OverlapFloor:       validate.DefaultOverlapFloor,
		},
		Embedding: EmbeddingConfig{
			Model:             "hash-256",
			Dimensions:        256,
			RequestsPerSecond: 8,
		},
		Store: StoreConfig{
			Backend: BackendBadger,
			Path:    "canonit.db",
		},
		TopicKeywords: 8,
	}
}

// Load reads a config from the given path. A missing file returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./canonit.yaml first, then ~/.config/canonit/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*Config, string, error) {
	cwdPath := "canonit.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks bounds and backend selection. Call after Load and after
// any command-line overrides are applied.
func (c *Config) Validate() error {
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("config: max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Chunking.MinTokens < 0 || c.Chunking.MinTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("config: min_tokens %d must be smaller than max_tokens %d", c.Chunking.MinTokens, c.Chunking.MaxTokens)
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("config: overlap_tokens %d must be smaller than max_tokens %d", c.Chunking.OverlapTokens, c.Chunking.MaxTokens)
	}

	for name, v := range map[string]float32{
		"relevance_threshold": c.Validation.RelevanceThreshold,
		"alignment_threshold": c.Validation.AlignmentThreshold,
		"duplicate_threshold": c.Validation.DuplicateThreshold,
		"contradiction_floor": c.Validation.ContradictionFloor,
		"overlap_floor":       c.Validation.OverlapFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s must be between 0 and 1, got %v", name, v)
		}
	}

	if c.Embedding.Model == "" {
		return errors.New("config: embedding model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("config: dimensions must be positive, got %d", c.Embedding.Dimensions)
	}

	switch c.Store.Backend {
	case BackendBadger:
		if c.Store.Path == "" {
			return errors.New("config: store path is required")
		}
	case BackendPgvector:
		if c.Store.PostgresURL == "" {
			return errors.New("config: postgres_url is required for the pgvector backend")
		}
		if c.Store.Path == "" {
			return errors.New("config: store path is required for the manifest")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	if c.TopicKeywords < 1 {
		return fmt.Errorf("config: topic_keywords must be positive, got %d", c.TopicKeywords)
	}
	return nil
}

// Snapshot returns the manifest fingerprint of everything that affects
// stored chunks. Any change here forces a rebuild.
func (c *Config) Snapshot() manifest.Snapshot {
	return manifest.Snapshot{
		MaxTokens:          c.Chunking.MaxTokens,
		OverlapTokens:      c.Chunking.OverlapTokens,
		MinTokens:          c.Chunking.MinTokens,
		RelevanceThreshold: c.Validation.RelevanceThreshold,
		AlignmentThreshold: c.Validation.AlignmentThreshold,
		DuplicateThreshold: c.Validation.DuplicateThreshold,
		ContradictionFloor: c.Validation.ContradictionFloor,
		OverlapFloor:       c.Validation.OverlapFloor,
		EmbeddingModel:     c.Embedding.Model,
		Dimensions:         c.Embedding.Dimensions,
	}
}

// ManifestPath returns where the ingestion ledger lives for this config.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Store.Path, "manifest.json")
}

// BadgerPath returns the directory of the embedded store.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Store.Path, "chunks")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "canonit", "config.yaml"), nil
}

// applyDefaults fills zero fields after a partial file load. A zero value
// is indistinguishable from unset, so explicit zeros fall back too.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = def.Chunking.MaxTokens
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = def.Chunking.OverlapTokens
	}
	if cfg.Chunking.MinTokens == 0 {
		cfg.Chunking.MinTokens = def.Chunking.MinTokens
	}
	if cfg.Validation.RelevanceThreshold == 0 {
		cfg.Validation.RelevanceThreshold = def.Validation.RelevanceThreshold
	}
	if cfg.Validation.AlignmentThreshold == 0 {
		cfg.Validation.AlignmentThreshold = def.Validation.AlignmentThreshold
	}
	if cfg.Validation.DuplicateThreshold == 0 {
		cfg.Validation.DuplicateThreshold = def.Validation.DuplicateThreshold
	}
	if cfg.Validation.ContradictionFloor == 0 {
		cfg.Validation.ContradictionFloor = def.Validation.ContradictionFloor
	}
	if cfg.Validation.OverlapFloor == 0 {
		cfg.Validation.OverlapFloor = def.Validation.OverlapFloor
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.Dimensions == 0 {
		if d := ai.HashModelDimensions(cfg.Embedding.Model); d > 0 {
			cfg.Embedding.Dimensions = d
		} else if d, ok := ai.KnownDimensions[cfg.Embedding.Model]; ok {
			cfg.Embedding.Dimensions = d
		}
	}
	if cfg.Embedding.RequestsPerSecond == 0 {
		cfg.Embedding.RequestsPerSecond = def.Embedding.RequestsPerSecond
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.TopicKeywords == 0 {
		cfg.TopicKeywords = def.TopicKeywords
	}
}

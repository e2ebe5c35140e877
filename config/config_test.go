package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/chunk"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, chunk.DefaultMaxTokens, cfg.Chunking.MaxTokens)
	assert.Equal(t, "hash-256", cfg.Embedding.Model)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonit.yaml")
	data := []byte("chunking:\n  max_tokens: 256\nembedding:\n  model: hash-512\n")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Chunking.MaxTokens)
	assert.Equal(t, chunk.DefaultOverlapTokens, cfg.Chunking.OverlapTokens)
	assert.Equal(t, chunk.DefaultMinTokens, cfg.Chunking.MinTokens)
	assert.Equal(t, "hash-512", cfg.Embedding.Model)
	assert.Equal(t, 512, cfg.Embedding.Dimensions, "inferred from the model identifier")
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	require.NoError(t, cfg.Validate())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "canonit.yaml")
	cfg := Default()
	cfg.Chunking.MaxTokens = 128
	cfg.Validation.RelevanceThreshold = 0.5
	cfg.Store.Path = "/var/lib/canonit"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max tokens", func(c *Config) { c.Chunking.MaxTokens = 0 }},
		{"min not below max", func(c *Config) { c.Chunking.MinTokens = c.Chunking.MaxTokens }},
		{"overlap not below max", func(c *Config) { c.Chunking.OverlapTokens = c.Chunking.MaxTokens }},
		{"threshold above one", func(c *Config) { c.Validation.RelevanceThreshold = 1.5 }},
		{"threshold below zero", func(c *Config) { c.Validation.DuplicateThreshold = -0.1 }},
		{"empty model", func(c *Config) { c.Embedding.Model = "" }},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"badger without path", func(c *Config) { c.Store.Path = "" }},
		{"pgvector without url", func(c *Config) {
			c.Store.Backend = BackendPgvector
			c.Store.PostgresURL = ""
		}},
		{"zero topic keywords", func(c *Config) { c.TopicKeywords = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSnapshot_CoversChunkingAndEmbedding(t *testing.T) {
	cfg := Default()
	snap := cfg.Snapshot()

	assert.Equal(t, cfg.Chunking.MaxTokens, snap.MaxTokens)
	assert.Equal(t, cfg.Chunking.OverlapTokens, snap.OverlapTokens)
	assert.Equal(t, cfg.Chunking.MinTokens, snap.MinTokens)
	assert.Equal(t, cfg.Embedding.Model, snap.EmbeddingModel)
	assert.Equal(t, cfg.Embedding.Dimensions, snap.Dimensions)

	changed := *cfg
	changed.Embedding.Model = "text-embedding-3-small"
	assert.NotEmpty(t, snap.Diff(changed.Snapshot()))
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "/data/canonit"

	assert.Equal(t, filepath.Join("/data/canonit", "manifest.json"), cfg.ManifestPath())
	assert.Equal(t, filepath.Join("/data/canonit", "chunks"), cfg.BadgerPath())
}

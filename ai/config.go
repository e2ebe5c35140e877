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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for embedding providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server.
	// Ignored by the built-in hashing embedder.
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "hash-256", "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// Dimensions is the expected vector length. When zero it is inferred
	// from the model identifier where possible.
	Dimensions int

	// APIKeyEnv names the environment variable holding the API key for
	// remote services. Left empty for local services that accept any token.
	APIKeyEnv string

	// RequestsPerSecond caps the request rate against remote embedding
	// services. Zero means unlimited.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the expected embedding vector length.
func WithDimensions(d int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = d
	}
}

// WithAPIKeyEnv sets the environment variable name holding the API key.
func WithAPIKeyEnv(name string) ConfigOption {
	return func(c *Config) {
		c.APIKeyEnv = name
	}
}

// WithRequestsPerSecond caps the request rate against remote services.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns a Config using the built-in hashing embedder, which
// needs no external service and is bit-identical across runs.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:     "http://localhost:11434/v1",
		EmbeddingModel:    "hash-256",
		Dimensions:        256,
		RequestsPerSecond: 8,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithModel("embeddinggemma"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc), and infers Dimensions
// from the model identifier when unset.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}

	if c.Dimensions == 0 {
		if d := HashModelDimensions(c.EmbeddingModel); d > 0 {
			c.Dimensions = d
		} else if d, ok := KnownDimensions[c.EmbeddingModel]; ok {
			c.Dimensions = d
		}
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if !IsHashModel(c.EmbeddingModel) && c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required for remote models")
	}
	if c.Dimensions <= 0 {
		return errors.New("ai config: Dimensions is required for unknown models")
	}
	if IsHashModel(c.EmbeddingModel) && HashModelDimensions(c.EmbeddingModel) != c.Dimensions {
		return errors.New("ai config: Dimensions disagrees with hash model suffix")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond must not be negative")
	}
	return nil
}

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


package canonit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/canonit/ai"
	"github.com/poiesic/canonit/ai/hash"
	"github.com/poiesic/canonit/ai/openai"
	"github.com/poiesic/canonit/chunk"
	"github.com/poiesic/canonit/config"
	"github.com/poiesic/canonit/extract"
	"github.com/poiesic/canonit/extract/html"
	"github.com/poiesic/canonit/extract/jsonl"
	"github.com/poiesic/canonit/extract/pdf"
	"github.com/poiesic/canonit/extract/text"
	"github.com/poiesic/canonit/ingest"
	"github.com/poiesic/canonit/manifest"
	"github.com/poiesic/canonit/search"
	"github.com/poiesic/canonit/storage"
	"github.com/poiesic/canonit/storage/badger"
	"github.com/poiesic/canonit/storage/pgvector"
	"github.com/poiesic/canonit/validate"
)

// Stack wires the embedder, the vector store, the manifest tracker, and the
// extractor registry behind one handle. It is the entry point for embedding
// canonit into another program; the CLI in cmd/canonit is a thin layer on
// top of it.
type Stack struct {
	cfg      *config.Config
	backend  *badger.Backend
	chunks   storage.ChunkRepository
	topics   storage.TopicRepository
	tracker  *manifest.Tracker
	registry *extract.Registry
	splitter *chunk.Splitter
	embedder ai.Embedder
	logger   *slog.Logger
}

// Open builds the stack described by cfg. A nil cfg uses the defaults. The
// context is only consulted while connecting to Postgres; the badger backend
// opens synchronously.
func Open(ctx context.Context, cfg *config.Config) (*Stack, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	s := &Stack{
		cfg:      cfg,
		embedder: embedder,
		logger:   slog.Default().With("component", "canonit"),
	}

	switch cfg.Store.Backend {
	case config.BackendBadger:
		backend, err := badger.OpenBackend(cfg.BadgerPath(), false)
		if err != nil {
			return nil, err
		}
		chunks, err := badger.NewChunkRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		topics, err := badger.NewTopicRepository(backend)
		if err != nil {
			chunks.Close()
			backend.Close()
			return nil, err
		}
		s.backend = backend
		s.chunks = chunks
		s.topics = topics
	case config.BackendPgvector:
		store, err := pgvector.Open(ctx, pgvector.Config{
			ConnString: cfg.Store.PostgresURL,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		s.chunks = store
		s.topics = store
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	tracker, err := manifest.NewTracker(cfg.ManifestPath())
	if err != nil {
		s.Close()
		return nil, err
	}
	s.tracker = tracker

	splitter, err := chunk.NewSplitter(
		chunk.WithMaxTokens(cfg.Chunking.MaxTokens),
		chunk.WithOverlapTokens(cfg.Chunking.OverlapTokens),
		chunk.WithMinTokens(cfg.Chunking.MinTokens),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.splitter = splitter

	s.registry = extract.NewRegistry(text.New(), pdf.New(), jsonl.New(), html.New())

	return s, nil
}

// newEmbedder selects the embedding provider from the model identifier.
// "hash-<dims>" models run offline; everything else goes through the
// OpenAI-compatible client.
func newEmbedder(cfg *config.Config) (ai.Embedder, error) {
	aiConfig := &ai.Config{
		EmbeddingHost:     cfg.Embedding.Host,
		EmbeddingModel:    cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		APIKeyEnv:         cfg.Embedding.APIKeyEnv,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	}
	if ai.IsHashModel(aiConfig.EmbeddingModel) {
		return hash.NewEmbedder(aiConfig)
	}
	return openai.NewEmbedder(aiConfig)
}

func (s *Stack) Close() error {
	if err := s.topics.Close(); err != nil {
		s.logger.Error("error closing topic repository", "err", err)
		return err
	}
	if err := s.chunks.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing storage backend", "err", err)
			return err
		}
	}
	return nil
}

func (s *Stack) ChunkRepository() storage.ChunkRepository {
	return s.chunks
}

func (s *Stack) TopicRepository() storage.TopicRepository {
	return s.topics
}

// Tracker returns the manifest ledger for the stack's data directory.
func (s *Stack) Tracker() *manifest.Tracker {
	return s.tracker
}

func (s *Stack) Embedder() ai.Embedder {
	return s.embedder
}

// Config returns the configuration the stack was opened with.
func (s *Stack) Config() *config.Config {
	return s.cfg
}

// NewPipeline builds an ingestion pipeline over the stack's stores, with the
// configured chunking and screening thresholds applied. Options given here
// run after the configured ones and may override them.
func (s *Stack) NewPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	base := []ingest.Option{
		ingest.WithValidatorOptions(
			validate.WithRelevanceThreshold(s.cfg.Validation.RelevanceThreshold),
			validate.WithAlignmentThreshold(s.cfg.Validation.AlignmentThreshold),
			validate.WithDuplicateThreshold(s.cfg.Validation.DuplicateThreshold),
			validate.WithContradictionFloor(s.cfg.Validation.ContradictionFloor),
			validate.WithOverlapFloor(s.cfg.Validation.OverlapFloor),
		),
		ingest.WithKeywordCount(s.cfg.TopicKeywords),
	}
	return ingest.NewPipeline(s.registry, s.splitter, s.embedder, s.chunks, s.topics, s.tracker, append(base, opts...)...)
}

// NewSearcher builds a searcher over the stack's chunk store.
func (s *Stack) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.chunks, s.embedder, opts...)
}

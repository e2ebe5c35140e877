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


package hash

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/poiesic/canonit/ai"
	"github.com/poiesic/canonit/chunk"
	"github.com/poiesic/canonit/core"
)

// Embedder maps text into a fixed-dimension vector by signed feature hashing
// of word unigrams and bigrams. It needs no external service, runs on the
// CPU, and is bit-identical across runs and platforms.
//
// Hash vectors are a lexical approximation of semantic similarity: texts
// sharing words and word pairs land close together. That is sufficient for
// duplicate detection and topical screening of prose corpora.
type Embedder struct {
	dims   int
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// newEmbedder is the internal constructor returning the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dims := ai.HashModelDimensions(config.EmbeddingModel)
	if dims == 0 {
		return nil, fmt.Errorf("not a hash model: %q", config.EmbeddingModel)
	}

	return &Embedder{
		dims:   dims,
		model:  config.EmbeddingModel,
		logger: slog.Default().With("component", "hash-embedder"),
	}, nil
}

// NewEmbedder creates a hashing embedder for a "hash-<dims>" model identifier.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates the feature-hash vector for a single text.
func (e *Embedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// EmbedTexts generates vectors for multiple texts. Each result is identical
// to what EmbedText would return for the same item.
func (e *Embedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding batch", "count", len(texts))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// Dimensions returns the configured vector length.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// ModelID returns the model identifier, e.g. "hash-256".
func (e *Embedder) ModelID() string {
	return e.model
}

func (e *Embedder) embed(text string) []float32 {
	vector := make([]float32, e.dims)

	tokens := chunk.Tokenize(text)
	for i, tok := range tokens {
		addFeature(vector, tok)
		if i+1 < len(tokens) {
			addFeature(vector, tok+" "+tokens[i+1])
		}
	}

	return core.Normalize(vector)
}

// addFeature hashes one feature into its bucket with a deterministic sign.
// The sign bit keeps unrelated features from only ever adding up, which
// would bias all vectors toward each other.
func addFeature(vector []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := sum % uint64(len(vector))
	if sum&(1<<63) != 0 {
		vector[bucket]--
	} else {
		vector[bucket]++
	}
}

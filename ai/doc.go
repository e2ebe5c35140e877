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


// Package ai provides the embedding abstraction used across the pipeline.
//
// The pipeline embeds chunk text, topic descriptions, and search queries
// through one Embedder interface so all vectors in a store come from a
// single model.
//
// # Implementation Packages
//
//   - ai/hash: built-in deterministic feature-hashing embedder. Runs on the
//     CPU with no external service and produces bit-identical vectors across
//     runs, which keeps re-ingestion reproducible.
//   - ai/openai: OpenAI-compatible API client (Ollama, LocalAI, vLLM,
//     OpenAI) with request rate limiting.
//   - ai/mock: test double with injectable behavior.
//
// # Constructor Return Type Pattern
//
// Public constructors (hash.NewEmbedder, openai.NewEmbedder) return the
// ai.Embedder INTERFACE to enforce abstraction and keep providers
// swappable. Test constructors (mock.NewMockEmbedder) return CONCRETE types
// so tests can inject behavior and assert call counts.
//
// # Determinism Contract
//
// Whatever the provider, embedding the same text twice must return
// numerically identical vectors, and EmbedTexts must agree item-for-item
// with EmbedText. Validation decisions depend on exact similarity scores;
// a drifting embedder would make re-ingestion non-reproducible.
package ai

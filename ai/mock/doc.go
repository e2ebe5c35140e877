// Package mock provides test doubles for the ai interfaces.
//
// MockEmbedder defaults to deterministic pseudo-random unit vectors derived
// from the text hash, so tests get stable similarity scores without an
// embedding service. Inject EmbedTextFunc / EmbedTextsFunc for exact vectors
// or error paths.
package mock

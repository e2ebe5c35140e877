package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use and deterministic:
// embedding the same text twice yields numerically identical vectors, whether
// through EmbedText or EmbedTexts.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of vectors this embedder produces.
	Dimensions() int

	// ModelID identifies the embedding model, e.g. "hash-256" or
	// "text-embedding-3-small". Vectors from different models never mix in
	// one store; the identifier is snapshotted at ingestion time so a model
	// change is detected on the next run.
	ModelID() string
}

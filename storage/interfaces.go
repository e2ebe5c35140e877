package storage

import (
	"context"
	"slices"

	"github.com/poiesic/canonit/core"
)

// ChunkRecord pairs a chunk with its metadata. The two are written together
// so no stored chunk can lose its provenance.
type ChunkRecord struct {
	Chunk *core.Chunk
	Meta  *core.ChunkMetadata
}

// Filter narrows chunk queries by metadata. The zero value matches every
// chunk.
type Filter struct {
	// Origin matches chunks from the given origin when nonzero.
	Origin core.Origin

	// DocumentId matches chunks of a single document when nonzero.
	DocumentId core.ID

	// Topics matches chunks attributed to any of the named topics.
	Topics []string
}

// Matches reports whether the metadata satisfies the filter. Backends share
// this so filter semantics cannot drift between implementations. A nil
// filter matches every chunk.
func (f *Filter) Matches(meta *core.ChunkMetadata) bool {
	if f == nil {
		return true
	}
	if meta == nil {
		return false
	}
	if f.Origin != 0 && meta.Origin != f.Origin {
		return false
	}
	if f.DocumentId != 0 && meta.DocumentId != f.DocumentId {
		return false
	}
	if len(f.Topics) > 0 && !slices.Contains(f.Topics, meta.Topic) {
		return false
	}
	return true
}

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the storage backend and releases resources.
	Close() error
}

// ChunkRepository stores chunks with their metadata and serves vector
// similarity queries over them.
type ChunkRepository interface {
	Repository

	// UpsertChunks writes chunk records atomically. Chunk IDs are
	// content-derived, so re-ingesting unchanged content overwrites
	// records in place. InsertedAt is stamped at write time.
	UpsertChunks(ctx context.Context, records ...*ChunkRecord) error

	// GetChunk retrieves a chunk record by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*ChunkRecord, error)

	// QuerySimilar returns the k chunks most similar to the vector that
	// satisfy the filter, ordered by similarity score descending. Equal
	// scores order by (document ID, sequence) so results are deterministic.
	// A nil filter matches every chunk.
	QuerySimilar(ctx context.Context, vector []float32, k int, filter *Filter) ([]*core.ScoredChunk, error)

	// CountChunks returns the number of stored chunks matching the filter.
	CountChunks(ctx context.Context, filter *Filter) (int, error)

	// DeleteDocumentChunks removes all chunks belonging to a document and
	// returns how many were removed. Used to clear stale content before a
	// document is reprocessed.
	DeleteDocumentChunks(ctx context.Context, documentId core.ID) (int, error)

	// DocumentIDs returns the distinct document IDs present in the store.
	DocumentIDs(ctx context.Context) ([]core.ID, error)
}

// TopicRepository stores the topics extracted from the authoritative source.
type TopicRepository interface {
	Repository

	// PutTopics upserts topics by their content-derived IDs.
	// Sets InsertedAt on first write and refreshes UpdatedAt.
	PutTopics(ctx context.Context, topics ...*core.Topic) error

	// GetTopic retrieves a topic by ID.
	// Returns ErrNotFound if the topic doesn't exist.
	GetTopic(ctx context.Context, id core.ID) (*core.Topic, error)

	// GetTopics returns all topics ordered by name.
	GetTopics(ctx context.Context) ([]*core.Topic, error)

	// DeleteAllTopics removes every topic and returns how many were removed.
	// Used by full rebuilds before the authoritative source is re-ingested.
	DeleteAllTopics(ctx context.Context) (int, error)

	// IncrementChunkCount adjusts a topic's accepted-chunk tally.
	// Returns ErrNotFound if the topic doesn't exist.
	IncrementChunkCount(ctx context.Context, id core.ID, delta int) error
}

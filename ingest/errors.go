package ingest

import "errors"

var (
	// ErrRegistryRequired is returned when an extractor registry is not provided.
	ErrRegistryRequired = errors.New("extractor registry required")

	// ErrSplitterRequired is returned when a chunk splitter is not provided.
	ErrSplitterRequired = errors.New("chunk splitter required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrTopicRepositoryRequired is returned when a topic repository is not provided.
	ErrTopicRepositoryRequired = errors.New("topic repository required")

	// ErrTrackerRequired is returned when a manifest tracker is not provided.
	ErrTrackerRequired = errors.New("manifest tracker required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidKeywordCount is returned when the per-topic keyword budget
	// is not positive.
	ErrInvalidKeywordCount = errors.New("keyword count must be greater than 0")

	// ErrCorpusLayout is returned when the corpus root contains neither an
	// authoritative/ nor an external/ directory.
	ErrCorpusLayout = errors.New("corpus has no authoritative/ or external/ directory")

	// ErrNoTopics is returned when external content is ingested before the
	// authoritative source has produced any topics to screen against.
	ErrNoTopics = errors.New("no topics stored, ingest the authoritative source first")

	// ErrInvalidSource is returned when a source selector is not one of
	// all, authoritative, or external.
	ErrInvalidSource = errors.New("invalid source selector")
)

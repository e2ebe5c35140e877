package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/canonit/ai"
	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/storage"
)

const (
	// defaultMinScore drops neighbors too dissimilar to the question to be
	// useful answers.
	defaultMinScore = 0.60

	// verbatimBoost rewards chunks containing every content word of the
	// question, lifting exact answers above merely related text.
	verbatimBoost = 0.3

	// overfetch widens the vector cut so the verbatim boost can promote
	// hits from just below the limit before truncation.
	overfetch = 2
)

// Result is one ranked answer with the provenance to cite it.
type Result struct {
	Chunk    *core.Chunk
	Metadata *core.ChunkMetadata
	Score    float32
	Citation string
}

// Searcher answers questions from the stored corpus: the authoritative
// source plus the external chunks that survived screening.
type Searcher struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	minScore float32
	filter   *storage.Filter
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "search")
		return nil
	}
}

// WithMinScore sets the similarity floor below which neighbors are
// discarded. Default is 0.60.
func WithMinScore(v float32) Option {
	return func(s *Searcher) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidMinScore, v)
		}
		s.minScore = v
		return nil
	}
}

// WithFilter restricts answers to chunks matching the filter, for example
// a single origin or topic. Nil searches everything.
func WithFilter(filter *storage.Filter) Option {
	return func(s *Searcher) error {
		s.filter = filter
		return nil
	}
}

// NewSearcher creates a new searcher over the given chunk store.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:   chunks,
		embedder: embedder,
		minScore: defaultMinScore,
		logger:   slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to maxHits chunks answering the question, best first.
func (s *Searcher) Search(ctx context.Context, question string, maxHits int) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, question, maxHits, nil)
}

// SearchWithMonitor is Search with per-stage audit callbacks.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, question string, maxHits int, monitor Monitor) ([]*Result, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if maxHits < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, maxHits)
	}

	monitor.Start(question)

	// 1. Embed the question
	vector, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		s.logger.Error("error embedding question", "question", question, "err", err)
		return nil, err
	}
	monitor.QueryEmbedded(len(vector))

	// 2. Retrieve the nearest stored chunks, overfetched so the verbatim
	// boost can reorder across the cut
	neighbors, err := s.chunks.QuerySimilar(ctx, vector, maxHits*overfetch, s.filter)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.NeighborsRetrieved(neighbors)

	// 3. Score: vector similarity plus a verbatim bonus
	results := make([]*Result, 0, len(neighbors))
	for _, neighbor := range neighbors {
		if neighbor.Chunk == nil || neighbor.Metadata == nil {
			continue
		}
		if neighbor.Score < s.minScore {
			continue
		}

		score := neighbor.Score
		if containsAllQuestionWords(neighbor.Chunk.Text, question) {
			score += verbatimBoost
			monitor.VerbatimHit(neighbor.Chunk)
		}

		results = append(results, &Result{
			Chunk:    neighbor.Chunk,
			Metadata: neighbor.Metadata,
			Score:    score,
			Citation: neighbor.Metadata.Citation(),
		})
	}

	// 4. Rank best first; ties break by document and position so the
	// order is deterministic
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.DocumentId != results[j].Chunk.DocumentId {
			return results[i].Chunk.DocumentId < results[j].Chunk.DocumentId
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search finished", "question", question, "results", len(results))
	return results, nil
}

package validate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/storage"
)

// Default thresholds for the three checks. Scores are cosine similarities
// in [-1, 1], thresholds in [0, 1].
const (
	DefaultRelevanceThreshold float32 = 0.75
	DefaultAlignmentThreshold float32 = 0.75
	DefaultDuplicateThreshold float32 = 0.85
	DefaultContradictionFloor float32 = 0.40
	DefaultOverlapFloor       float32 = 0.20
	DefaultTopK                       = 3
)

// Validator screens external chunks against extracted topics and stored
// authoritative chunks.
type Validator struct {
	chunks storage.ChunkRepository
	topics storage.TopicRepository
	logger *slog.Logger

	relevanceThreshold float32
	alignmentThreshold float32
	duplicateThreshold float32
	contradictionFloor float32
	overlapFloor       float32
	topK               int

	topicsOnce   sync.Once
	topicCache   []*core.Topic
	topicLoadErr error
}

// Option configures a Validator.
type Option func(*Validator) error

// WithRelevanceThreshold sets the minimum topic similarity for a chunk to
// count as on-subject. Default is 0.75.
func WithRelevanceThreshold(v float32) Option {
	return func(va *Validator) error {
		if v < 0 || v > 1 {
			return ErrInvalidThreshold
		}
		va.relevanceThreshold = v
		return nil
	}
}

// WithAlignmentThreshold sets the similarity above which a negation
// asymmetry alone classifies a chunk as contradictory. Default is 0.75.
func WithAlignmentThreshold(v float32) Option {
	return func(va *Validator) error {
		if v < 0 || v > 1 {
			return ErrInvalidThreshold
		}
		va.alignmentThreshold = v
		return nil
	}
}

// WithDuplicateThreshold sets the similarity at which a chunk is rejected
// as adding no new information. Default is 0.85.
func WithDuplicateThreshold(v float32) Option {
	return func(va *Validator) error {
		if v < 0 || v > 1 {
			return ErrInvalidThreshold
		}
		va.duplicateThreshold = v
		return nil
	}
}

// WithContradictionFloor sets the minimum similarity for the moderate
// contradiction branch; below it, texts are treated as discussing
// different claims. Default is 0.40.
func WithContradictionFloor(v float32) Option {
	return func(va *Validator) error {
		if v < 0 || v > 1 {
			return ErrInvalidThreshold
		}
		va.contradictionFloor = v
		return nil
	}
}

// WithOverlapFloor sets the minimum lexical overlap required by the
// moderate contradiction branch. Default is 0.20.
func WithOverlapFloor(v float32) Option {
	return func(va *Validator) error {
		if v < 0 || v > 1 {
			return ErrInvalidThreshold
		}
		va.overlapFloor = v
		return nil
	}
}

// WithTopK sets how many authoritative neighbors the contradiction and
// duplicate checks examine. Default is 3.
func WithTopK(k int) Option {
	return func(va *Validator) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		va.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(va *Validator) error {
		if logger == nil {
			logger = slog.Default()
		}
		va.logger = logger
		return nil
	}
}

// NewValidator creates a validator over the given repositories. Topics are
// loaded on first use, so construct the validator after the authoritative
// source has been ingested.
func NewValidator(
	chunks storage.ChunkRepository,
	topics storage.TopicRepository,
	opts ...Option,
) (*Validator, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}

	v := &Validator{
		chunks:             chunks,
		topics:             topics,
		logger:             slog.Default(),
		relevanceThreshold: DefaultRelevanceThreshold,
		alignmentThreshold: DefaultAlignmentThreshold,
		duplicateThreshold: DefaultDuplicateThreshold,
		contradictionFloor: DefaultContradictionFloor,
		overlapFloor:       DefaultOverlapFloor,
		topK:               DefaultTopK,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Validate runs the three ordered checks against an external chunk's text
// and embedding. The returned topic is the nearest topic regardless of
// outcome; it is nil only when no topics exist. A non-nil error means a
// check could not run (store failure), never a rejection.
func (v *Validator) Validate(ctx context.Context, text string, vector []float32) (*core.ValidationOutcome, *core.Topic, error) {
	return v.ValidateWithMonitor(ctx, text, vector, nil)
}

// ValidateWithMonitor is Validate with per-check audit callbacks.
func (v *Validator) ValidateWithMonitor(ctx context.Context, text string, vector []float32, monitor Monitor) (*core.ValidationOutcome, *core.Topic, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if len(vector) == 0 {
		return nil, nil, ErrNoVector
	}

	monitor.Start(text)
	outcome := &core.ValidationOutcome{}

	// 1. Relevance: nearest topic must be similar enough
	topic, err := v.nearestTopic(ctx, vector)
	if err != nil {
		return nil, nil, err
	}

	relevance := core.CheckResult{Check: core.CheckRelevance}
	if topic != nil {
		relevance.Score = core.Cosine(vector, topic.Vector)
		relevance.ComparedTo = []core.ID{topic.Id}
	}
	relevance.Passed = relevance.Score >= v.relevanceThreshold
	monitor.RelevanceChecked(relevance, topic)
	outcome.Checks = append(outcome.Checks, relevance)
	if !relevance.Passed {
		outcome.RejectedBy = core.CheckRelevance
		monitor.Finish(outcome)
		return outcome, topic, nil
	}

	// 2. Contradiction: compare against nearest authoritative chunks
	neighbors, err := v.chunks.QuerySimilar(ctx, vector, v.topK, &storage.Filter{Origin: core.OriginAuthoritative})
	if err != nil {
		return nil, nil, err
	}
	monitor.NeighborsRetrieved(neighbors)

	contradiction := v.checkContradiction(text, neighbors)
	monitor.ContradictionChecked(contradiction)
	outcome.Checks = append(outcome.Checks, contradiction)
	if !contradiction.Passed {
		outcome.RejectedBy = core.CheckContradiction
		monitor.Finish(outcome)
		return outcome, topic, nil
	}

	// 3. Duplicate: nothing authoritative may already say this
	duplicate := v.checkDuplicate(neighbors)
	monitor.DuplicateChecked(duplicate)
	outcome.Checks = append(outcome.Checks, duplicate)
	if !duplicate.Passed {
		outcome.RejectedBy = core.CheckDuplicate
		monitor.Finish(outcome)
		return outcome, topic, nil
	}

	outcome.Accepted = true
	monitor.Finish(outcome)
	return outcome, topic, nil
}

// nearestTopic returns the stored topic most similar to the vector, or nil
// when no topics exist. Topics are loaded once and cached for the
// validator's lifetime.
func (v *Validator) nearestTopic(ctx context.Context, vector []float32) (*core.Topic, error) {
	v.topicsOnce.Do(func() {
		v.topicCache, v.topicLoadErr = v.topics.GetTopics(ctx)
	})
	if v.topicLoadErr != nil {
		return nil, v.topicLoadErr
	}

	var best *core.Topic
	var bestScore float32
	for _, topic := range v.topicCache {
		if len(topic.Vector) == 0 {
			continue
		}
		score := core.Cosine(vector, topic.Vector)
		if best == nil || score > bestScore {
			best = topic
			bestScore = score
		}
	}
	return best, nil
}

// checkContradiction classifies the chunk against each neighbor. A high
// similarity with negation asymmetry means the texts state the same claim
// with opposite polarity; moderate similarity needs lexical overlap as
// extra evidence the texts discuss the same subject.
func (v *Validator) checkContradiction(text string, neighbors []*core.ScoredChunk) core.CheckResult {
	result := core.CheckResult{Check: core.CheckContradiction, Passed: true}

	for _, neighbor := range neighbors {
		result.ComparedTo = append(result.ComparedTo, neighbor.Chunk.Id)
		if neighbor.Score > result.Score {
			result.Score = neighbor.Score
		}

		if !NegationAsymmetry(text, neighbor.Chunk.Text) {
			continue
		}
		if neighbor.Score >= v.alignmentThreshold {
			result.Passed = false
		} else if neighbor.Score >= v.contradictionFloor &&
			LexicalOverlap(text, neighbor.Chunk.Text) >= v.overlapFloor {
			result.Passed = false
		}
		if !result.Passed {
			result.Score = neighbor.Score
			result.ComparedTo = []core.ID{neighbor.Chunk.Id}
			return result
		}
	}

	return result
}

// checkDuplicate fails when any neighbor is close enough to make the chunk
// redundant.
func (v *Validator) checkDuplicate(neighbors []*core.ScoredChunk) core.CheckResult {
	result := core.CheckResult{Check: core.CheckDuplicate, Passed: true}

	for _, neighbor := range neighbors {
		result.ComparedTo = append(result.ComparedTo, neighbor.Chunk.Id)
		if neighbor.Score > result.Score {
			result.Score = neighbor.Score
		}
		if neighbor.Score >= v.duplicateThreshold {
			result.Passed = false
			result.Score = neighbor.Score
			result.ComparedTo = []core.ID{neighbor.Chunk.Id}
			return result
		}
	}

	return result
}

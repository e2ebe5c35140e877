package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/storage"
	"github.com/poiesic/canonit/storage/badger"
)

func newTestStores(t *testing.T) (storage.ChunkRepository, storage.TopicRepository) {
	t.Helper()
	chunks, topics, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		topics.Close()
		chunks.Close()
		backend.Close()
	})
	return chunks, topics
}

func seedTopic(t *testing.T, topics storage.TopicRepository, name string, vector []float32) {
	t.Helper()
	err := topics.PutTopics(context.Background(), &core.Topic{Name: name, Vector: vector})
	require.NoError(t, err)
}

func seedAuthoritative(t *testing.T, chunks storage.ChunkRepository, seq int, text string, vector []float32) core.ID {
	t.Helper()
	id := core.ChunkID("auth", seq, text)
	err := chunks.UpsertChunks(context.Background(), &storage.ChunkRecord{
		Chunk: &core.Chunk{
			Id:         id,
			DocumentId: core.IDFromContent("authoritative/handbook.pdf"),
			Seq:        seq,
			Text:       text,
			TokenCount: 8,
			Vector:     vector,
		},
		Meta: &core.ChunkMetadata{
			ChunkId:    id,
			DocumentId: core.IDFromContent("authoritative/handbook.pdf"),
			Origin:     core.OriginAuthoritative,
		},
	})
	require.NoError(t, err)
	return id
}

func TestNewValidator_RequiredDependencies(t *testing.T) {
	chunks, topics := newTestStores(t)

	_, err := NewValidator(nil, topics)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewValidator(chunks, nil)
	assert.ErrorIs(t, err, ErrTopicRepositoryRequired)

	_, err = NewValidator(chunks, topics, WithRelevanceThreshold(1.5))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewValidator(chunks, topics, WithTopK(0))
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestValidate_AcceptsAlignedChunk(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{1, 0, 0})
	seedAuthoritative(t, chunks, 0, "Employees receive 15 days of paid vacation.", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	outcome, topic, err := v.Validate(context.Background(),
		"Staff can buy additional holiday through the benefits portal.",
		[]float32{0.8, 0.6, 0})
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.RejectedBy)
	require.Len(t, outcome.Checks, 3)
	assert.Equal(t, core.CheckRelevance, outcome.Checks[0].Check)
	assert.Equal(t, core.CheckContradiction, outcome.Checks[1].Check)
	assert.Equal(t, core.CheckDuplicate, outcome.Checks[2].Check)
	require.NotNil(t, topic)
	assert.Equal(t, "Vacation", topic.Name)
}

func TestValidate_RejectsIrrelevant(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	outcome, topic, err := v.Validate(context.Background(),
		"Quarterly revenue grew by twelve percent.",
		[]float32{0, 1, 0})
	require.NoError(t, err)

	assert.True(t, outcome.Rejected())
	assert.Equal(t, core.CheckRelevance, outcome.RejectedBy)
	// Short-circuit: later checks never ran
	require.Len(t, outcome.Checks, 1)
	assert.False(t, outcome.Checks[0].Passed)
	require.NotNil(t, topic)
	assert.Equal(t, "Vacation", topic.Name)
}

func TestValidate_RejectsContradiction_HighSimilarity(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{1, 0, 0})
	authID := seedAuthoritative(t, chunks, 0,
		"Employees receive 15 days of paid vacation.", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	// Same claim, opposite polarity: "0 days" is a zero-quantity negation
	outcome, _, err := v.Validate(context.Background(),
		"Employees receive 0 days of vacation.",
		[]float32{0.96, 0.28, 0})
	require.NoError(t, err)

	assert.True(t, outcome.Rejected())
	assert.Equal(t, core.CheckContradiction, outcome.RejectedBy)
	require.Len(t, outcome.Checks, 2)

	failed := outcome.Checks[1]
	assert.False(t, failed.Passed)
	assert.Greater(t, failed.Score, float32(0.75))
	assert.Equal(t, []core.ID{authID}, failed.ComparedTo)
}

func TestValidate_RejectsContradiction_ModerateSimilarity(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{0.6, 0.8, 0})
	seedAuthoritative(t, chunks, 0,
		"Unused vacation days carry over to the next year.", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	// Similarity ~0.6 is below the alignment threshold but above the
	// contradiction floor; shared vocabulary plus the prohibition marker
	// still classifies it as contradictory.
	outcome, _, err := v.Validate(context.Background(),
		"Unused vacation days are prohibited from carryover.",
		[]float32{0.6, 0.8, 0})
	require.NoError(t, err)

	assert.True(t, outcome.Rejected())
	assert.Equal(t, core.CheckContradiction, outcome.RejectedBy)
}

func TestValidate_UnrelatedNegationPasses(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{1, 0, 0})
	seedTopic(t, topics, "Facilities", []float32{0, 0, 1})
	seedAuthoritative(t, chunks, 0,
		"Employees receive 15 days of paid vacation.", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	// Negated text, but orthogonal to every authoritative chunk: it
	// discusses a different claim, so it is not a contradiction.
	outcome, topic, err := v.Validate(context.Background(),
		"No smoking is permitted indoors.",
		[]float32{0, 0, 1})
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	require.NotNil(t, topic)
	assert.Equal(t, "Facilities", topic.Name)
}

func TestValidate_RejectsDuplicate(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{1, 0, 0})
	authID := seedAuthoritative(t, chunks, 0,
		"Employees receive 15 days of paid vacation.", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	// Passes relevance and contradiction (no polarity difference) but
	// restates what the authoritative source already says.
	outcome, _, err := v.Validate(context.Background(),
		"Workers get fifteen paid vacation days each year.",
		[]float32{1, 0, 0})
	require.NoError(t, err)

	assert.True(t, outcome.Rejected())
	assert.Equal(t, core.CheckDuplicate, outcome.RejectedBy)
	require.Len(t, outcome.Checks, 3)

	failed := outcome.Checks[2]
	assert.False(t, failed.Passed)
	assert.GreaterOrEqual(t, failed.Score, float32(0.85))
	assert.Equal(t, []core.ID{authID}, failed.ComparedTo)
}

func TestValidate_NoTopicsRejectsEverything(t *testing.T) {
	chunks, topics := newTestStores(t)

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	outcome, topic, err := v.Validate(context.Background(),
		"Anything at all.", []float32{1, 0, 0})
	require.NoError(t, err)

	assert.True(t, outcome.Rejected())
	assert.Equal(t, core.CheckRelevance, outcome.RejectedBy)
	assert.Nil(t, topic)
}

func TestValidate_NoVector(t *testing.T) {
	chunks, topics := newTestStores(t)

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	_, _, err = v.Validate(context.Background(), "text", nil)
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestValidate_LowerRelevanceThresholdAcceptsMore(t *testing.T) {
	vectors := [][]float32{
		{0.8, 0.6, 0}, // relevance ~0.8: accepted at both thresholds
		{0.6, 0.8, 0}, // relevance ~0.6: accepted only at the lower one
	}

	accepted := func(t *testing.T, threshold float32) int {
		chunks, topics := newTestStores(t)
		seedTopic(t, topics, "Vacation", []float32{1, 0, 0})
		v, err := NewValidator(chunks, topics, WithRelevanceThreshold(threshold))
		require.NoError(t, err)

		count := 0
		for _, vec := range vectors {
			outcome, _, err := v.Validate(context.Background(), "Plain statement about vacation.", vec)
			require.NoError(t, err)
			if outcome.Accepted {
				count++
			}
		}
		return count
	}

	strict := accepted(t, 0.75)
	relaxed := accepted(t, 0.5)
	assert.Equal(t, 1, strict)
	assert.Equal(t, 2, relaxed)
	assert.GreaterOrEqual(t, relaxed, strict)
}

// recordingMonitor captures the callback sequence for assertions.
type recordingMonitor struct {
	calls []string
}

func (m *recordingMonitor) Start(_ string) { m.calls = append(m.calls, "start") }
func (m *recordingMonitor) RelevanceChecked(_ core.CheckResult, _ *core.Topic) {
	m.calls = append(m.calls, "relevance")
}
func (m *recordingMonitor) NeighborsRetrieved(_ []*core.ScoredChunk) {
	m.calls = append(m.calls, "neighbors")
}
func (m *recordingMonitor) ContradictionChecked(_ core.CheckResult) {
	m.calls = append(m.calls, "contradiction")
}
func (m *recordingMonitor) DuplicateChecked(_ core.CheckResult) {
	m.calls = append(m.calls, "duplicate")
}
func (m *recordingMonitor) Finish(_ *core.ValidationOutcome) { m.calls = append(m.calls, "finish") }

func TestValidateWithMonitor_CallbackOrder(t *testing.T) {
	chunks, topics := newTestStores(t)
	seedTopic(t, topics, "Vacation", []float32{1, 0, 0})
	seedAuthoritative(t, chunks, 0, "Employees receive 15 days of paid vacation.", []float32{1, 0, 0})

	v, err := NewValidator(chunks, topics)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, _, err = v.ValidateWithMonitor(context.Background(),
		"Staff can buy additional holiday.", []float32{0.8, 0.6, 0}, monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "relevance", "neighbors", "contradiction", "duplicate", "finish"}, monitor.calls)
}

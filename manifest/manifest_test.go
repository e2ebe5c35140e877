package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/canonit/core"
)

func TestTally_Observe(t *testing.T) {
	var tally Tally

	tally.Observe(nil) // authoritative chunks are never screened
	tally.Observe(&core.ValidationOutcome{Accepted: true})
	tally.Observe(&core.ValidationOutcome{RejectedBy: core.CheckRelevance})
	tally.Observe(&core.ValidationOutcome{RejectedBy: core.CheckContradiction})
	tally.Observe(&core.ValidationOutcome{RejectedBy: core.CheckContradiction})
	tally.Observe(&core.ValidationOutcome{RejectedBy: core.CheckDuplicate})

	assert.Equal(t, 2, tally.Accepted)
	assert.Equal(t, 1, tally.RejectedRelevance)
	assert.Equal(t, 2, tally.RejectedContradiction)
	assert.Equal(t, 1, tally.RejectedDuplicate)
	assert.Equal(t, 4, tally.Rejected())
}

func TestTally_Add(t *testing.T) {
	a := Tally{Accepted: 3, RejectedRelevance: 1, FailedEmbedding: 2}
	b := Tally{Accepted: 2, RejectedDuplicate: 4}

	a.Add(b)

	assert.Equal(t, 5, a.Accepted)
	assert.Equal(t, 1, a.RejectedRelevance)
	assert.Equal(t, 4, a.RejectedDuplicate)
	assert.Equal(t, 2, a.FailedEmbedding)
}

func TestSnapshot_Diff(t *testing.T) {
	base := Snapshot{
		MaxTokens:          512,
		OverlapTokens:      64,
		MinTokens:          24,
		RelevanceThreshold: 0.75,
		AlignmentThreshold: 0.75,
		DuplicateThreshold: 0.85,
		ContradictionFloor: 0.40,
		OverlapFloor:       0.20,
		EmbeddingModel:     "hash-256",
		Dimensions:         256,
	}

	assert.Empty(t, base.Diff(base))

	changed := base
	changed.EmbeddingModel = "text-embedding-3-small"
	changed.Dimensions = 1536
	assert.Equal(t, []string{"embedding_model", "dimensions"}, base.Diff(changed))
}

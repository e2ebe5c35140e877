package manifest

import (
	"time"

	"github.com/poiesic/canonit/core"
)

// manifestVersion is the on-disk format version this package writes and the
// highest it knows how to read.
const manifestVersion = 1

// Manifest is the durable record of what a corpus ingestion produced. It is
// written as an indented JSON file next to the store so operators can read
// it directly.
type Manifest struct {
	Version   int               `json:"version"`
	Config    Snapshot          `json:"config"`
	UpdatedAt time.Time         `json:"updated_at"`
	Entries   map[string]*Entry `json:"entries"` // keyed by document path
}

// Entry records one ingested document.
type Entry struct {
	Checksum   string    `json:"checksum"`
	IngestedAt time.Time `json:"ingested_at"`
	ChunkCount int       `json:"chunk_count"` // chunks stored for this document
	Tally      Tally     `json:"tally"`
}

// Tally counts chunk-level outcomes for one document.
type Tally struct {
	Accepted              int `json:"accepted"`
	RejectedRelevance     int `json:"rejected_relevance"`
	RejectedContradiction int `json:"rejected_contradiction"`
	RejectedDuplicate     int `json:"rejected_duplicate"`
	FailedEmbedding       int `json:"failed_embedding"`
}

// Observe counts one validation outcome. A nil outcome is an authoritative
// chunk, which is never screened and always accepted.
func (t *Tally) Observe(outcome *core.ValidationOutcome) {
	if outcome == nil || outcome.Accepted {
		t.Accepted++
		return
	}
	switch outcome.RejectedBy {
	case core.CheckRelevance:
		t.RejectedRelevance++
	case core.CheckContradiction:
		t.RejectedContradiction++
	case core.CheckDuplicate:
		t.RejectedDuplicate++
	}
}

// Add accumulates another tally into this one.
func (t *Tally) Add(other Tally) {
	t.Accepted += other.Accepted
	t.RejectedRelevance += other.RejectedRelevance
	t.RejectedContradiction += other.RejectedContradiction
	t.RejectedDuplicate += other.RejectedDuplicate
	t.FailedEmbedding += other.FailedEmbedding
}

// Rejected returns the number of chunks any validation check turned away.
func (t Tally) Rejected() int {
	return t.RejectedRelevance + t.RejectedContradiction + t.RejectedDuplicate
}

// Snapshot pins the configuration a manifest was built with. Chunks produced
// under one snapshot are not comparable with chunks produced under another,
// so a changed snapshot forces a rebuild.
type Snapshot struct {
	MaxTokens          int     `json:"max_tokens"`
	OverlapTokens      int     `json:"overlap_tokens"`
	MinTokens          int     `json:"min_tokens"`
	RelevanceThreshold float32 `json:"relevance_threshold"`
	AlignmentThreshold float32 `json:"alignment_threshold"`
	DuplicateThreshold float32 `json:"duplicate_threshold"`
	ContradictionFloor float32 `json:"contradiction_floor"`
	OverlapFloor       float32 `json:"overlap_floor"`
	EmbeddingModel     string  `json:"embedding_model"`
	Dimensions         int     `json:"dimensions"`
}

// Diff returns the JSON field names that differ between the two snapshots,
// in declaration order. An empty result means the snapshots match.
func (s Snapshot) Diff(other Snapshot) []string {
	var fields []string
	if s.MaxTokens != other.MaxTokens {
		fields = append(fields, "max_tokens")
	}
	if s.OverlapTokens != other.OverlapTokens {
		fields = append(fields, "overlap_tokens")
	}
	if s.MinTokens != other.MinTokens {
		fields = append(fields, "min_tokens")
	}
	if s.RelevanceThreshold != other.RelevanceThreshold {
		fields = append(fields, "relevance_threshold")
	}
	if s.AlignmentThreshold != other.AlignmentThreshold {
		fields = append(fields, "alignment_threshold")
	}
	if s.DuplicateThreshold != other.DuplicateThreshold {
		fields = append(fields, "duplicate_threshold")
	}
	if s.ContradictionFloor != other.ContradictionFloor {
		fields = append(fields, "contradiction_floor")
	}
	if s.OverlapFloor != other.OverlapFloor {
		fields = append(fields, "overlap_floor")
	}
	if s.EmbeddingModel != other.EmbeddingModel {
		fields = append(fields, "embedding_model")
	}
	if s.Dimensions != other.Dimensions {
		fields = append(fields, "dimensions")
	}
	return fields
}

package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so identical content
// produces identical IDs across runs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the identifier for a chunk from the exact content version
// of its document, its position, and its text. Re-ingesting an unchanged
// document reproduces the same IDs.
func ChunkID(documentChecksum string, seq int, text string) ID {
	return IDFromContent(documentChecksum + "#" + strconv.Itoa(seq) + ":" + text)
}

// Checksum returns the lowercase hex BLAKE2b-256 digest of data.
// Used to detect document changes between ingestion runs.
func Checksum(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Origin identifies the trust class of a source document.
type Origin int

const (
	// OriginAuthoritative marks the single source of truth. Its content is
	// always accepted and defines the topics external content is screened against.
	OriginAuthoritative Origin = iota + 1
	// OriginExternal marks supplemental content that must pass semantic
	// validation before storage.
	OriginExternal
)

// String returns the directory-convention name of the origin.
func (o Origin) String() string {
	switch o {
	case OriginAuthoritative:
		return "authoritative"
	case OriginExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParseOrigin maps a corpus directory name to an Origin.
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "authoritative":
		return OriginAuthoritative, nil
	case "external":
		return OriginExternal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOrigin, s)
	}
}

// SourceDocument describes one discovered input file. It is immutable once
// checksummed; a changed file is a new version of the document.
type SourceDocument struct {
	Path          string   // relative to the corpus root, stable across machines
	Checksum      string   // BLAKE2b-256 of the raw file bytes
	Origin        Origin
	Language      string   // BCP-47-ish tag, "und" when undetected
	SegmentCount  int      // extracted text segments, 0 until extraction ran
	RelatedTopics []string // topic hints from the directory layout; empty means all topics
	DiscoveredAt  time.Time
}

// ID returns the stable identifier of the document, derived from its path.
// It survives content changes so stale chunks can be located and removed.
func (d *SourceDocument) ID() ID {
	return IDFromContent(d.Path)
}

// Name returns the file name portion of the document path.
func (d *SourceDocument) Name() string {
	return filepath.Base(d.Path)
}

// Chunk is one retrievable unit of text cut from a source document.
// It may be enriched with an embedding vector during processing.
type Chunk struct {
	Id         ID
	DocumentId ID
	Seq        int // position within the document, 0-based
	Text       string
	TokenCount int
	Vector     []float32 // embedding vector (populated by the embedder)
	InsertedAt time.Time
}

// ChunkMetadata carries the provenance stored 1:1 with every chunk so
// retrieval results can cite their source.
type ChunkMetadata struct {
	ChunkId          ID
	DocumentId       ID
	DocumentPath     string
	DocumentChecksum string
	Origin           Origin
	Page             int    // 1-based for paginated formats, 0 otherwise
	Section          string // heading or section reference, optional
	Topic            string // matched topic name, set for accepted external chunks
	Outcome          *ValidationOutcome
}

// Citation renders the human-readable source reference for a chunk.
func (m *ChunkMetadata) Citation() string {
	name := filepath.Base(m.DocumentPath)
	switch {
	case m.Page > 0 && m.Section != "":
		return name + ", p." + strconv.Itoa(m.Page) + " (" + m.Section + ")"
	case m.Page > 0:
		return name + ", p." + strconv.Itoa(m.Page)
	case m.Section != "":
		return name + " (" + m.Section + ")"
	default:
		return name
	}
}

// Names of the ordered validation checks applied to external chunks.
const (
	CheckRelevance     = "relevance"
	CheckContradiction = "contradiction"
	CheckDuplicate     = "duplicate"
)

// CheckResult records the outcome of a single validation check.
type CheckResult struct {
	Check      string
	Passed     bool
	Score      float32 // similarity that drove the decision
	ComparedTo []ID    // topic or chunk IDs the text was compared against
}

// ValidationOutcome records the checks applied to an external chunk, in
// execution order. A failed check short-circuits the rest, so a rejected
// outcome carries only the checks that actually ran.
type ValidationOutcome struct {
	Checks     []CheckResult
	Accepted   bool
	RejectedBy string // name of the failing check, empty when accepted
}

// Rejected reports whether the chunk was filtered out.
func (o *ValidationOutcome) Rejected() bool {
	return !o.Accepted
}

// Topic is a subject area extracted from the authoritative source.
// External chunks must be relevant to at least one topic to be stored.
type Topic struct {
	Id         ID
	Name       string
	Keywords   []string
	Section    string // authoritative section the topic originated from
	Vector     []float32
	ChunkCount int // accepted external chunks attributed to this topic
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// EmbeddingText returns the text embedded to position the topic in vector
// space. Including the keywords keeps short topic names from being ambiguous.
func (t *Topic) EmbeddingText() string {
	text := t.Name
	for _, kw := range t.Keywords {
		text += " " + kw
	}
	return text
}

// SimilarityMatch represents a chunk match from vector similarity search.
type SimilarityMatch struct {
	ChunkId ID
	Score   float32
}

// ScoredChunk pairs a stored chunk and its metadata with a similarity score.
type ScoredChunk struct {
	Chunk    *Chunk
	Metadata *ChunkMetadata
	Score    float32
}

package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/core"
)

func TestMarshalID_RoundTrip(t *testing.T) {
	id := core.IDFromContent("some chunk")

	got, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUnmarshalID_WrongLength(t *testing.T) {
	_, err := UnmarshalID([]byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSerializationFailed))
}

func TestMarshalID_SortsNumerically(t *testing.T) {
	// Big-endian encoding keeps lexicographic key order aligned with
	// numeric ID order, which composite index keys rely on.
	small := MarshalID(core.ID(5))
	large := MarshalID(core.ID(1 << 40))
	assert.Equal(t, -1, compareBytes(small, large))
}

func compareBytes(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func TestChunkRecord_RoundTrip(t *testing.T) {
	record := &ChunkRecord{
		Chunk: &core.Chunk{
			Id:         core.ChunkID("abc", 2, "text"),
			DocumentId: core.IDFromContent("external/vendor/leave.md"),
			Seq:        2,
			Text:       "Employees accrue leave monthly.",
			TokenCount: 4,
			Vector:     []float32{0.25, -0.5, 0.125},
		},
		Meta: &core.ChunkMetadata{
			DocumentPath: "external/vendor/leave.md",
			Origin:       core.OriginExternal,
			Page:         3,
			Section:      "Accrual",
			Topic:        "Leave",
			Outcome: &core.ValidationOutcome{
				Accepted: true,
				Checks: []core.CheckResult{
					{Check: core.CheckRelevance, Passed: true, Score: 0.91},
				},
			},
		},
	}

	data, err := MarshalChunkRecord(record)
	require.NoError(t, err)

	got, err := UnmarshalChunkRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record.Chunk.Vector, got.Chunk.Vector)
	assert.Equal(t, record.Meta.Outcome, got.Meta.Outcome)
	assert.Equal(t, record.Meta.Topic, got.Meta.Topic)
}

func TestUnmarshalChunkRecord_Garbage(t *testing.T) {
	_, err := UnmarshalChunkRecord([]byte("not json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSerializationFailed))
}

func TestTopic_RoundTrip(t *testing.T) {
	topic := &core.Topic{
		Id:       core.IDFromContent("Parental Leave"),
		Name:     "Parental Leave",
		Keywords: []string{"leave", "parental", "weeks"},
		Section:  "4.2 Parental Leave",
		Vector:   []float32{1, 0, 0},
	}

	data, err := MarshalTopic(topic)
	require.NoError(t, err)

	got, err := UnmarshalTopic(data)
	require.NoError(t, err)
	assert.Equal(t, topic.Name, got.Name)
	assert.Equal(t, topic.Keywords, got.Keywords)
	assert.Equal(t, topic.Vector, got.Vector)
}

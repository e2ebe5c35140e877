package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/ai"
	"github.com/poiesic/canonit/core"
)

func newTestEmbedder(t *testing.T) ai.Embedder {
	t.Helper()
	e, err := NewEmbedder(ai.NewConfig(ai.WithModel("hash-256"), ai.WithDimensions(256)))
	require.NoError(t, err)
	return e
}

func TestNewEmbedder_RejectsRemoteModel(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithHost("http://localhost:11434"),
		ai.WithModel("embeddinggemma"),
		ai.WithDimensions(768),
	)

	_, err := NewEmbedder(cfg)
	assert.Error(t, err)
}

func TestEmbedText_Deterministic(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	v1, err := e.EmbedText(ctx, "employees accrue thirty days of annual leave")
	require.NoError(t, err)
	v2, err := e.EmbedText(ctx, "employees accrue thirty days of annual leave")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestEmbedText_Dimensions(t *testing.T) {
	e := newTestEmbedder(t)

	v, err := e.EmbedText(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, v, 256)
	assert.Equal(t, 256, e.Dimensions())
	assert.Equal(t, "hash-256", e.ModelID())
}

func TestEmbedText_UnitLength(t *testing.T) {
	e := newTestEmbedder(t)

	v, err := e.EmbedText(context.Background(), "vectors are normalized to unit length")
	require.NoError(t, err)

	var mag float64
	for _, x := range v {
		mag += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-5)
}

func TestEmbedTexts_MatchesSinglePath(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	texts := []string{
		"first chunk of text",
		"second chunk of text",
		"third, entirely different",
	}

	batch, err := e.EmbedTexts(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.EmbedText(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "batch item %d drifted from single path", i)
	}
}

func TestEmbedText_SimilarTextsScoreHigher(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	base, err := e.EmbedText(ctx, "employees receive thirty days of paid annual leave")
	require.NoError(t, err)
	similar, err := e.EmbedText(ctx, "employees receive twenty days of paid annual leave")
	require.NoError(t, err)
	unrelated, err := e.EmbedText(ctx, "quarterly financial projections for the widget division")
	require.NoError(t, err)

	simScore := core.Cosine(base, similar)
	unrelScore := core.Cosine(base, unrelated)
	assert.Greater(t, simScore, unrelScore)
}

func TestEmbedText_IdenticalTextFullSimilarity(t *testing.T) {
	e := newTestEmbedder(t)
	ctx := context.Background()

	a, err := e.EmbedText(ctx, "verbatim duplicate text")
	require.NoError(t, err)
	b, err := e.EmbedText(ctx, "verbatim duplicate text")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, float64(core.Cosine(a, b)), 1e-6)
}

func TestEmbedText_EmptyText(t *testing.T) {
	e := newTestEmbedder(t)

	v, err := e.EmbedText(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, v, 256)
	assert.True(t, core.IsFinite(v))
}

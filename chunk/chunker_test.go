package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/extract"
)

// sentence builds a sentence of exactly n word tokens with a unique prefix.
func sentence(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ") + "."
}

// paragraph builds a two-sentence paragraph of exactly 2n word tokens.
func paragraph(prefix string, n int) string {
	return sentence(prefix+"a", n) + " " + sentence(prefix+"b", n)
}

func TestNewSplitter_Defaults(t *testing.T) {
	s, err := NewSplitter()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxTokens, s.maxTokens)
	assert.Equal(t, DefaultOverlapTokens, s.overlapTokens)
	assert.Equal(t, DefaultMinTokens, s.minTokens)
}

func TestNewSplitter_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "zero max tokens", opts: []Option{WithMaxTokens(0)}},
		{name: "negative overlap", opts: []Option{WithOverlapTokens(-1)}},
		{name: "negative min", opts: []Option{WithMinTokens(-1)}},
		{name: "overlap not below max", opts: []Option{WithMaxTokens(50), WithOverlapTokens(50)}},
		{name: "min not below max", opts: []Option{WithMaxTokens(50), WithMinTokens(50)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestSplit_TokenBounds(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(100), WithOverlapTokens(20), WithMinTokens(5))
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString(paragraph(fmt.Sprintf("p%d", i), 20))
		sb.WriteString("\n\n")
	}
	segments := []extract.Segment{{Text: sb.String(), Page: 1}}

	candidates := s.Split(segments)
	require.NotEmpty(t, candidates)

	for i, c := range candidates {
		assert.LessOrEqual(t, c.Tokens, 100, "candidate %d exceeds max", i)
		assert.GreaterOrEqual(t, c.Tokens, 5, "candidate %d below min", i)
		assert.Equal(t, TokenCount(c.Text), c.Tokens, "candidate %d token count drifted", i)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(80), WithOverlapTokens(15), WithMinTokens(5))
	require.NoError(t, err)

	segments := []extract.Segment{
		{Text: paragraph("one", 25) + "\n\n" + paragraph("two", 25), Page: 1},
		{Text: paragraph("three", 25), Page: 2},
	}

	first := s.Split(segments)
	second := s.Split(segments)
	assert.Equal(t, first, second)
}

func TestSplit_OverlapSeedsNextChunk(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(100), WithOverlapTokens(20), WithMinTokens(5))
	require.NoError(t, err)

	p1 := paragraph("p1", 20)
	p2 := paragraph("p2", 20)
	p3 := paragraph("p3", 20)
	segments := []extract.Segment{{Text: p1 + "\n\n" + p2 + "\n\n" + p3, Page: 1}}

	candidates := s.Split(segments)
	require.Len(t, candidates, 2)

	// The second chunk opens with the closing sentence of the first.
	lastSentence := sentence("p2b", 20)
	assert.True(t, strings.HasSuffix(candidates[0].Text, lastSentence))
	assert.True(t, strings.HasPrefix(candidates[1].Text, lastSentence))

	overlap := TokenCount(lastSentence)
	assert.LessOrEqual(t, overlap, 20)
	assert.Greater(t, overlap, 0)
}

func TestSplit_OverlapShrinksForLargeNextUnit(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(100), WithOverlapTokens(50), WithMinTokens(5))
	require.NoError(t, err)

	p1 := paragraph("p1", 20) // 40 tokens
	big := sentence("big", 90)
	segments := []extract.Segment{{Text: p1 + "\n\n" + big, Page: 1}}

	candidates := s.Split(segments)
	require.Len(t, candidates, 2)

	// Overlap budget is squeezed to max - bigTokens = 10, so the seed falls
	// back to trailing words and the chunk still fits.
	assert.LessOrEqual(t, candidates[1].Tokens, 100)
	assert.Greater(t, candidates[1].Tokens, 90)
}

func TestSplit_OversizeParagraphFallsBackToSentences(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(50), WithOverlapTokens(0), WithMinTokens(5))
	require.NoError(t, err)

	// One paragraph of 5 sentences, 30 tokens each: 150 tokens total.
	var sentences []string
	for i := 0; i < 5; i++ {
		sentences = append(sentences, sentence(fmt.Sprintf("s%d", i), 30))
	}
	segments := []extract.Segment{{Text: strings.Join(sentences, " "), Page: 1}}

	candidates := s.Split(segments)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.LessOrEqual(t, c.Tokens, 50)
	}
}

func TestSplit_OversizeSentenceWrapsAtWords(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(40), WithOverlapTokens(0), WithMinTokens(5))
	require.NoError(t, err)

	giant := sentence("giant", 130)
	segments := []extract.Segment{{Text: giant, Page: 1}}

	candidates := s.Split(segments)
	require.GreaterOrEqual(t, len(candidates), 3)
	for _, c := range candidates {
		assert.LessOrEqual(t, c.Tokens, 40)
	}
}

func TestSplit_DropsTailBelowMin(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(50), WithOverlapTokens(0), WithMinTokens(30))
	require.NoError(t, err)

	segments := []extract.Segment{
		{Text: paragraph("p1", 20) + "\n\n" + sentence("tiny", 25), Page: 1},
	}

	candidates := s.Split(segments)
	require.Len(t, candidates, 1)
	assert.Equal(t, 40, candidates[0].Tokens)
}

func TestSplit_EmptyInput(t *testing.T) {
	s, err := NewSplitter()
	require.NoError(t, err)

	assert.Empty(t, s.Split(nil))
	assert.Empty(t, s.Split([]extract.Segment{{Text: "   \n  "}}))
}

func TestSplit_TooSmallDocument(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(100), WithOverlapTokens(10), WithMinTokens(20))
	require.NoError(t, err)

	candidates := s.Split([]extract.Segment{{Text: "too small."}})
	assert.Empty(t, candidates)
}

func TestSplit_TableSegmentStaysWhole(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(100), WithOverlapTokens(10), WithMinTokens(5))
	require.NoError(t, err)

	table := "[table]\nplan | premium\nbasic | 40\npremium | 90"
	segments := []extract.Segment{
		{Text: paragraph("intro", 15), Page: 1, Section: "Benefits"},
		{Text: table, Page: 1, Section: "Benefits", Table: true},
	}

	candidates := s.Split(segments)
	require.NotEmpty(t, candidates)

	var found bool
	for _, c := range candidates {
		if strings.Contains(c.Text, table) {
			found = true
		}
	}
	assert.True(t, found, "table text was split apart")
}

func TestSplit_Provenance(t *testing.T) {
	s, err := NewSplitter(WithMaxTokens(100), WithOverlapTokens(20), WithMinTokens(5))
	require.NoError(t, err)

	segments := []extract.Segment{
		{Text: paragraph("p1", 20) + "\n\n" + paragraph("p2", 20), Page: 1, Section: "Intro"},
		{Text: paragraph("p3", 20), Page: 2, Section: "Policy"},
	}

	candidates := s.Split(segments)
	require.Len(t, candidates, 2)

	assert.Equal(t, 1, candidates[0].Page)
	assert.Equal(t, "Intro", candidates[0].Section)

	// Second chunk starts with overlap seed, but provenance comes from its
	// first new content.
	assert.Equal(t, 2, candidates[1].Page)
	assert.Equal(t, "Policy", candidates[1].Section)
}

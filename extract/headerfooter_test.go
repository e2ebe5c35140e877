package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRecurring_RemovesRunningHeader(t *testing.T) {
	segments := []Segment{
		{Page: 1, Text: "ACME Corp Employee Handbook\nWelcome to the company.\nWe are glad you are here."},
		{Page: 2, Text: "ACME Corp Employee Handbook\nLeave policy applies to all staff."},
		{Page: 3, Text: "ACME Corp Employee Handbook\nBenefits are reviewed annually."},
	}

	got := FilterRecurring(segments)
	require.Len(t, got, 3)
	for _, seg := range got {
		assert.NotContains(t, seg.Text, "ACME Corp Employee Handbook")
	}
	assert.Contains(t, got[0].Text, "Welcome to the company.")
	assert.Contains(t, got[1].Text, "Leave policy")
}

func TestFilterRecurring_RemovesPageNumbers(t *testing.T) {
	segments := []Segment{
		{Page: 1, Text: "Content one.\n1"},
		{Page: 2, Text: "Content two.\n2"},
	}

	got := FilterRecurring(segments)
	require.Len(t, got, 2)
	assert.Equal(t, "Content one.", got[0].Text)
	assert.Equal(t, "Content two.", got[1].Text)
}

func TestFilterRecurring_KeepsLongRepeatedContent(t *testing.T) {
	long := "This disclaimer paragraph is deliberately much longer than any plausible running header line would ever be in practice."
	segments := []Segment{
		{Page: 1, Text: long + "\nBody one."},
		{Page: 2, Text: long + "\nBody two."},
		{Page: 3, Text: long + "\nBody three."},
	}

	got := FilterRecurring(segments)
	require.Len(t, got, 3)
	for _, seg := range got {
		assert.Contains(t, seg.Text, long)
	}
}

func TestFilterRecurring_TwoSegmentsKeepHeaders(t *testing.T) {
	segments := []Segment{
		{Page: 1, Text: "Short Header\nBody one."},
		{Page: 2, Text: "Short Header\nBody two."},
	}

	got := FilterRecurring(segments)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Text, "Short Header")
}

func TestFilterRecurring_DropsEmptiedSegments(t *testing.T) {
	segments := []Segment{
		{Page: 1, Text: "Footer Line"},
		{Page: 2, Text: "Footer Line"},
		{Page: 3, Text: "Footer Line"},
		{Page: 4, Text: "Footer Line\nActual content survives."},
	}

	got := FilterRecurring(segments)
	require.Len(t, got, 1)
	assert.Equal(t, "Actual content survives.", got[0].Text)
	assert.Equal(t, 4, got[0].Page)
}

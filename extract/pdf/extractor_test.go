package pdf

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/extract"
)

// mockRunner substitutes the pdftotext invocation.
type mockRunner struct {
	output  []byte
	err     error
	gotName string
	gotArgs []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.gotName = name
	m.gotArgs = args
	return m.output, m.err
}

func TestExtract_Pages(t *testing.T) {
	runner := &mockRunner{output: []byte("Page one text.\n\fPage two text.\n")}
	e := NewWithRunner(runner)

	segments, err := e.Extract(context.Background(), "handbook.pdf")
	require.NoError(t, err)

	require.Len(t, segments, 2)
	assert.Equal(t, "Page one text.", segments[0].Text)
	assert.Equal(t, 1, segments[0].Page)
	assert.Equal(t, "Page two text.", segments[1].Text)
	assert.Equal(t, 2, segments[1].Page)
}

func TestExtract_SkipsBlankPages(t *testing.T) {
	runner := &mockRunner{output: []byte("One\f\fThree")}
	e := NewWithRunner(runner)

	segments, err := e.Extract(context.Background(), "gaps.pdf")
	require.NoError(t, err)

	require.Len(t, segments, 2)
	assert.Equal(t, 1, segments[0].Page)
	assert.Equal(t, 3, segments[1].Page)
}

func TestExtract_StripsRecurringHeaders(t *testing.T) {
	out := "ACME Corp Handbook\nVacation policy details.\f" +
		"ACME Corp Handbook\nSick leave details.\f" +
		"ACME Corp Handbook\nRemote work details."
	runner := &mockRunner{output: []byte(out)}
	e := NewWithRunner(runner)

	segments, err := e.Extract(context.Background(), "handbook.pdf")
	require.NoError(t, err)

	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.NotContains(t, seg.Text, "ACME Corp Handbook")
	}
	assert.Equal(t, "Vacation policy details.", segments[0].Text)
}

func TestExtract_InvocationArguments(t *testing.T) {
	runner := &mockRunner{output: []byte("text")}
	e := NewWithRunner(runner)

	_, err := e.Extract(context.Background(), "/corpus/doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdftotext", runner.gotName)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "/corpus/doc.pdf", "-"}, runner.gotArgs)
}

func TestExtract_RunnerFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("damaged xref table")}
	e := NewWithRunner(runner)

	_, err := e.Extract(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, extract.ErrUnreadable)
	assert.Contains(t, err.Error(), "damaged xref table")
}

func TestExtract_ToolMissing(t *testing.T) {
	runner := &mockRunner{err: &exec.Error{Name: toolName, Err: exec.ErrNotFound}}
	e := NewWithRunner(runner)

	_, err := e.Extract(context.Background(), "doc.pdf")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestExtract_EmptyOutput(t *testing.T) {
	runner := &mockRunner{output: []byte("\f\f")}
	e := NewWithRunner(runner)

	_, err := e.Extract(context.Background(), "blank.pdf")
	assert.ErrorIs(t, err, extract.ErrNoText)
}

func TestInstallInstructions(t *testing.T) {
	hint := InstallInstructions()
	assert.Contains(t, hint, "pdftotext")
	assert.Contains(t, hint, "brew install poppler")
	assert.Contains(t, hint, "apt install poppler-utils")
}

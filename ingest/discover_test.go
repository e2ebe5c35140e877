package ingest

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/extract"
	"github.com/poiesic/canonit/extract/text"
)

// writeCorpusFile creates a file under root, making parent directories as
// needed, and returns its absolute path.
func writeCorpusFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func testRegistry() *extract.Registry {
	return extract.NewRegistry(text.New())
}

func TestDiscover_OrderAndOrigins(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "external/blog/post.md", "External post about vacation.")
	writeCorpusFile(t, root, "authoritative/handbook.md", "# Vacation\n\nEmployees receive 15 days.")
	writeCorpusFile(t, root, "authoritative/appendix.txt", "Appendix text.")
	writeCorpusFile(t, root, "external/faq.md", "Frequently asked questions.")

	docs, err := Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)
	require.Len(t, docs, 4)

	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	assert.Equal(t, []string{
		"authoritative/appendix.txt",
		"authoritative/handbook.md",
		"external/blog/post.md",
		"external/faq.md",
	}, paths, "authoritative first, lexical within each origin")

	assert.Equal(t, core.OriginAuthoritative, docs[0].Origin)
	assert.Equal(t, core.OriginExternal, docs[2].Origin)
	for _, d := range docs {
		assert.NotEmpty(t, d.Checksum, "%s has no checksum", d.Path)
		assert.False(t, d.DiscoveredAt.IsZero())
		assert.Equal(t, "und", d.Language, "language is detected later")
	}
}

func TestDiscover_TopicHints(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "authoritative/handbook.md", "Handbook.")
	writeCorpusFile(t, root, "external/benefits/dental/faq.md", "Dental FAQ.")
	writeCorpusFile(t, root, "external/plain.md", "No subdirectory.")

	docs, err := Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	byPath := make(map[string]*core.SourceDocument)
	for _, d := range docs {
		byPath[d.Path] = d
	}

	assert.Equal(t, []string{"benefits", "dental"}, byPath["external/benefits/dental/faq.md"].RelatedTopics)
	assert.Empty(t, byPath["external/plain.md"].RelatedTopics, "file directly under external/ hints nothing")
	assert.Empty(t, byPath["authoritative/handbook.md"].RelatedTopics, "authoritative never carries hints")
}

func TestDiscover_ChecksumTracksContent(t *testing.T) {
	root := t.TempDir()
	p := writeCorpusFile(t, root, "authoritative/doc.md", "version one")

	docs, err := Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)
	first := docs[0].Checksum

	docs, err = Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, first, docs[0].Checksum, "unchanged content keeps its checksum")

	require.NoError(t, os.WriteFile(p, []byte("version two"), 0o644))
	docs, err = Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)
	assert.NotEqual(t, first, docs[0].Checksum, "changed content changes the checksum")
}

func TestDiscover_SkipsUnsupportedAndHidden(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "authoritative/doc.md", "Document.")
	writeCorpusFile(t, root, "authoritative/image.png", "not text")
	writeCorpusFile(t, root, "authoritative/.hidden.md", "dotfile")
	writeCorpusFile(t, root, "external/.git/config.md", "vcs internals")
	writeCorpusFile(t, root, "external/notes.md", "Notes.")

	docs, err := Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)

	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	assert.Equal(t, []string{"authoritative/doc.md", "external/notes.md"}, paths)
}

func TestDiscover_MissingLayout(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "random/doc.md", "misplaced")

	_, err := Discover(root, testRegistry(), slog.Default())
	assert.ErrorIs(t, err, ErrCorpusLayout)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), testRegistry(), slog.Default())
	assert.Error(t, err)
}

func TestDiscover_NilRegistry(t *testing.T) {
	_, err := Discover(t.TempDir(), nil, slog.Default())
	assert.ErrorIs(t, err, ErrRegistryRequired)
}

func TestDiscover_OneOriginIsEnough(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "authoritative/doc.md", "Only the source of truth.")

	docs, err := Discover(root, testRegistry(), slog.Default())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

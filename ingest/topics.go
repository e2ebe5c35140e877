package ingest

import (
	"path"
	"strings"
	"unicode"

	"github.com/poiesic/canonit/chunk"
	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/extract"
)

// defaultKeywordCount is how many keywords a topic keeps when the pipeline
// is not configured otherwise.
const defaultKeywordCount = 8

// BuildTopics derives topics from an authoritative document. Each detected
// section becomes one topic named after its heading; segments without a
// section fall into a catch-all topic named after the file. Keywords are
// the most frequent content words of the section's text.
//
// Topic identity is the lowercased name, so re-ingesting the document
// refreshes topics in place, and the same heading in two authoritative
// files maps to one topic (the later file wins its keywords).
//
// Vectors are left nil; the caller embeds Topic.EmbeddingText.
func BuildTopics(doc *core.SourceDocument, segments []extract.Segment, keywordCount int) []*core.Topic {
	if keywordCount < 1 {
		keywordCount = defaultKeywordCount
	}

	type group struct {
		name    string
		section string
		texts   []string
	}
	var order []string
	groups := make(map[string]*group)

	for _, seg := range segments {
		name := strings.TrimSpace(seg.Section)
		if name == "" {
			name = titleFromFilename(doc.Path)
		}
		key := strings.ToLower(name)

		g, ok := groups[key]
		if !ok {
			g = &group{name: name, section: seg.Section}
			groups[key] = g
			order = append(order, key)
		}
		g.texts = append(g.texts, seg.Text)
	}

	topics := make([]*core.Topic, 0, len(order))
	for _, key := range order {
		g := groups[key]
		keywords := chunk.ContentWords(strings.Join(g.texts, " "), keywordCount)
		if len(keywords) == 0 {
			// All stop words or non-text; nothing to anchor relevance on.
			continue
		}
		topics = append(topics, &core.Topic{
			Id:       core.IDFromContent("topic:" + key),
			Name:     g.name,
			Keywords: keywords,
			Section:  g.section,
		})
	}

	return topics
}

// titleFromFilename turns "guides/employee-handbook.pdf" into
// "Employee Handbook".
func titleFromFilename(docPath string) string {
	base := path.Base(docPath)
	base = strings.TrimSuffix(base, path.Ext(base))

	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	if len(words) == 0 {
		return base
	}
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

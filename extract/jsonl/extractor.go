package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/canonit/extract"
)

var _ extract.Extractor = (*Extractor)(nil)

// record is one pre-segmented line produced by an exporting tool.
type record struct {
	Text    string `json:"text"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
	Table   bool   `json:"table,omitempty"`
}

// Extractor reads corpora that were already segmented elsewhere: one JSON
// object per line with text and optional page/section provenance.
type Extractor struct{}

// New creates a JSONL extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".jsonl", ".ndjson"}
}

// Extract parses one segment per non-blank line. A malformed line fails the
// whole file; partial corpora hide ingestion bugs.
func (e *Extractor) Extract(_ context.Context, path string) ([]extract.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrUnreadable, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var segments []extract.Segment
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", extract.ErrUnreadable, lineNo, err)
		}
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}

		segments = append(segments, extract.Segment{
			Text:    strings.TrimSpace(rec.Text),
			Page:    rec.Page,
			Section: rec.Section,
			Table:   rec.Table,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrUnreadable, err)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", extract.ErrNoText, path)
	}
	return segments, nil
}

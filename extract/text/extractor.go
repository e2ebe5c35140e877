// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package text

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/poiesic/canonit/extract"
)

var _ extract.Extractor = (*Extractor)(nil)

// Extractor handles plain text and Markdown files. Markdown headings become
// segment sections; pipe tables are flattened and marked as tables.
type Extractor struct{}

// New creates a text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".text", ".md", ".markdown"}
}

// Extract reads the file and splits it into segments. Plain text yields a
// single segment; Markdown yields one segment per heading section, with
// tables emitted separately in place.
func (e *Extractor) Extract(_ context.Context, path string) ([]extract.Segment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrUnreadable, err)
	}

	content := strings.ReplaceAll(string(raw), "\r\n", "\n")
	segments := parse(content, isMarkdown(path))
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", extract.ErrNoText, path)
	}
	return segments, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Pre-compiled Markdown syntax patterns.
var (
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	imageLink    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	inlineLink   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	codeSpan     = regexp.MustCompile("`([^`]*)`")
	ruleLine     = regexp.MustCompile(`^\s*(-{3,}|\*{3,}|_{3,})\s*$`)
	separatorRow = regexp.MustCompile(`^:?-+:?$`)
)

var boldMarkers = strings.NewReplacer("**", "", "__", "")

// parse walks the document line by line. Markdown mode tracks the current
// heading and groups everything under it into one segment, with tables
// emitted separately in place.
func parse(content string, markdown bool) []extract.Segment {
	lines := strings.Split(content, "\n")
	if markdown {
		lines = stripFrontMatter(lines)
	}

	var segments []extract.Segment
	var body []string
	var table []string
	section := ""

	flushBody := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if text != "" {
			segments = append(segments, extract.Segment{Text: text, Section: section})
		}
	}
	flushTable := func() {
		if len(table) == 0 {
			return
		}
		text := flattenTable(table)
		table = table[:0]
		if text != "" {
			segments = append(segments, extract.Segment{Text: text, Section: section, Table: true})
		}
	}

	inFence := false
	for _, line := range lines {
		if markdown && strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			body = append(body, line)
			continue
		}

		if markdown {
			if m := headingLine.FindStringSubmatch(line); m != nil {
				flushTable()
				flushBody()
				section = cleanInline(m[2])
				continue
			}
			if strings.HasPrefix(strings.TrimSpace(line), "|") {
				flushBody()
				table = append(table, strings.TrimSpace(line))
				continue
			}
			flushTable()

			if ruleLine.MatchString(line) {
				flushBody()
				continue
			}
			line = cleanInline(strings.TrimPrefix(strings.TrimSpace(line), "> "))
		}

		body = append(body, line)
	}
	flushTable()
	flushBody()

	return segments
}

// stripFrontMatter drops a leading YAML front matter block delimited by ---
// lines.
func stripFrontMatter(lines []string) []string {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return lines
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return lines[i+1:]
		}
	}
	return lines
}

// cleanInline resolves Markdown inline syntax to its visible text.
func cleanInline(s string) string {
	s = imageLink.ReplaceAllString(s, "$1")
	s = inlineLink.ReplaceAllString(s, "$1")
	s = codeSpan.ReplaceAllString(s, "$1")
	return boldMarkers.Replace(s)
}

// flattenTable renders pipe-table rows as plain lines of cell text. The
// separator row between header and body is dropped.
func flattenTable(rows []string) string {
	var out []string
	for _, row := range rows {
		cells := splitTableRow(row)
		if len(cells) == 0 {
			continue
		}
		out = append(out, strings.Join(cells, " | "))
	}
	return strings.Join(out, "\n")
}

func splitTableRow(row string) []string {
	row = strings.Trim(strings.TrimSpace(row), "|")

	var cells []string
	separator := true
	for _, cell := range strings.Split(row, "|") {
		cell = cleanInline(strings.TrimSpace(cell))
		if !separatorRow.MatchString(cell) {
			separator = false
		}
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	if separator {
		return nil
	}
	return cells
}

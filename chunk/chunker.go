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


package chunk

import (
	"fmt"
	"strings"

	"github.com/poiesic/canonit/extract"
)

// Default token bounds. Tuned for embedding models with 8k-token windows;
// overrides come from the pipeline configuration.
const (
	DefaultMaxTokens     = 512
	DefaultOverlapTokens = 64
	DefaultMinTokens     = 24
)

// Candidate is a chunk cut from a document, before embedding and identity
// assignment.
type Candidate struct {
	Text    string
	Tokens  int
	Page    int    // page of the first content in the chunk
	Section string // section of the first content in the chunk
}

// Splitter cuts extracted segments into token-bounded candidates.
type Splitter struct {
	maxTokens     int
	overlapTokens int
	minTokens     int
}

// Option configures a Splitter.
type Option func(*Splitter) error

// WithMaxTokens sets the upper token bound per chunk.
func WithMaxTokens(n int) Option {
	return func(s *Splitter) error {
		if n <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", n)
		}
		s.maxTokens = n
		return nil
	}
}

// WithOverlapTokens sets the token budget carried from the tail of one chunk
// into the head of the next.
func WithOverlapTokens(n int) Option {
	return func(s *Splitter) error {
		if n < 0 {
			return fmt.Errorf("overlap tokens must not be negative, got %d", n)
		}
		s.overlapTokens = n
		return nil
	}
}

// WithMinTokens sets the lower token bound; smaller candidates are discarded.
func WithMinTokens(n int) Option {
	return func(s *Splitter) error {
		if n < 0 {
			return fmt.Errorf("min tokens must not be negative, got %d", n)
		}
		s.minTokens = n
		return nil
	}
}

// NewSplitter creates a Splitter with the given options applied over the
// defaults.
func NewSplitter(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
		minTokens:     DefaultMinTokens,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid splitter option: %w", err)
		}
	}
	if s.overlapTokens >= s.maxTokens {
		return nil, fmt.Errorf("overlap tokens %d must be smaller than max tokens %d", s.overlapTokens, s.maxTokens)
	}
	if s.minTokens >= s.maxTokens {
		return nil, fmt.Errorf("min tokens %d must be smaller than max tokens %d", s.minTokens, s.maxTokens)
	}
	return s, nil
}

// unit is an indivisible piece of text during accumulation. Units are
// guaranteed to fit within maxTokens after normalization.
type unit struct {
	text    string
	tokens  int
	page    int
	section string
}

// Split cuts segments into candidates. The same segments and bounds always
// produce identical candidates.
//
// Paragraphs are accumulated until the next would overflow maxTokens; the
// chunk is then closed and the next one is seeded with trailing sentences of
// the closed chunk, within the overlap budget. Paragraphs larger than
// maxTokens fall back to sentence accumulation; single oversize sentences are
// wrapped at word boundaries as a last resort.
func (s *Splitter) Split(segments []extract.Segment) []Candidate {
	units := s.buildUnits(segments)
	if len(units) == 0 {
		return nil
	}

	var out []Candidate

	var parts []string
	tokens := 0
	page, section := 0, ""
	hasContent := false // false while parts holds only overlap seed

	flush := func() {
		if !hasContent {
			return
		}
		out = append(out, Candidate{
			Text:    strings.Join(parts, "\n\n"),
			Tokens:  tokens,
			Page:    page,
			Section: section,
		})
	}

	for _, u := range units {
		if tokens > 0 && tokens+u.tokens > s.maxTokens {
			flush()

			budget := s.overlapTokens
			if room := s.maxTokens - u.tokens; room < budget {
				budget = room
			}
			seed := overlapTail(strings.Join(parts, "\n\n"), budget)

			parts = parts[:0]
			tokens = 0
			hasContent = false
			if seed != "" {
				parts = append(parts, seed)
				tokens = TokenCount(seed)
			}
		}

		if !hasContent {
			page, section = u.page, u.section
			hasContent = true
		}
		parts = append(parts, u.text)
		tokens += u.tokens
	}
	flush()

	kept := out[:0]
	for _, c := range out {
		if c.Tokens >= s.minTokens {
			kept = append(kept, c)
		}
	}
	return kept
}

// buildUnits flattens segments into paragraph units, breaking any unit that
// alone exceeds maxTokens down to sentences and then to word windows.
func (s *Splitter) buildUnits(segments []extract.Segment) []unit {
	var units []unit

	add := func(text string, seg extract.Segment) {
		n := TokenCount(text)
		if n == 0 {
			return
		}
		if n <= s.maxTokens {
			units = append(units, unit{text: text, tokens: n, page: seg.Page, section: seg.Section})
			return
		}
		for _, sentence := range SplitSentences(text) {
			sn := TokenCount(sentence)
			if sn == 0 {
				continue
			}
			if sn <= s.maxTokens {
				units = append(units, unit{text: sentence, tokens: sn, page: seg.Page, section: seg.Section})
				continue
			}
			for _, window := range wrapWords(sentence, s.maxTokens) {
				units = append(units, unit{text: window, tokens: TokenCount(window), page: seg.Page, section: seg.Section})
			}
		}
	}

	for _, seg := range segments {
		if seg.Table {
			// Tables stay whole so rows are not separated from their header.
			add(strings.TrimSpace(seg.Text), seg)
			continue
		}
		for _, para := range SplitParagraphs(seg.Text) {
			add(para, seg)
		}
	}
	return units
}

// overlapTail returns the trailing whole sentences of text that fit within
// the token budget. When even the final sentence is too large, its trailing
// words are used instead so the overlap region is still non-empty.
func overlapTail(text string, budget int) string {
	if budget <= 0 {
		return ""
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		n := TokenCount(sentences[i])
		if total+n > budget {
			break
		}
		total += n
		start = i
	}

	if start < len(sentences) {
		return strings.Join(sentences[start:], " ")
	}

	// Final sentence alone exceeds the budget; fall back to its tail words.
	fields := strings.Fields(sentences[len(sentences)-1])
	total = 0
	idx := len(fields)
	for i := len(fields) - 1; i >= 0; i-- {
		n := TokenCount(fields[i])
		if total+n > budget {
			break
		}
		total += n
		idx = i
	}
	if idx == len(fields) {
		return ""
	}
	return strings.Join(fields[idx:], " ")
}

// wrapWords splits an oversize sentence into word windows of at most
// maxTokens tokens each.
func wrapWords(sentence string, maxTokens int) []string {
	fields := strings.Fields(sentence)

	var windows []string
	var cur []string
	tokens := 0
	for _, f := range fields {
		n := TokenCount(f)
		if tokens > 0 && tokens+n > maxTokens {
			windows = append(windows, strings.Join(cur, " "))
			cur = cur[:0]
			tokens = 0
		}
		cur = append(cur, f)
		tokens += n
	}
	if len(cur) > 0 {
		windows = append(windows, strings.Join(cur, " "))
	}
	return windows
}

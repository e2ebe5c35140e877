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
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches a word: letters or digits, optionally joined by
// apostrophes ("don't", "l'hôtel"). Digits are words too; quantities like
// "0 days" must survive tokenization.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// Stop words filtered when extracting content words. Superset of the common
// English function words; tokens this short carry no topical signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "were": true, "to": true, "of": true, "and": true, "in": true,
	"that": true, "have": true, "has": true, "had": true, "it": true, "its": true,
	"for": true, "not": true, "on": true, "with": true, "as": true, "you": true,
	"your": true, "do": true, "does": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "they": true, "their": true, "we": true,
	"our": true, "he": true, "she": true, "his": true, "her": true, "will": true,
	"would": true, "can": true, "could": true, "may": true, "all": true, "any": true,
	"been": true, "which": true, "who": true, "when": true, "if": true, "than": true,
	"then": true, "there": true, "these": true, "those": true, "into": true,
	"also": true, "such": true, "each": true, "other": true, "more": true,
	"must": true, "shall": true, "should": true,
}

// Tokenize splits text into lowercase word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// TokenCount returns the number of word tokens in text.
func TokenCount(text string) int {
	return len(tokenPattern.FindAllString(text, -1))
}

// IsStopWord reports whether the lowercase token is a common function word.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// ContentWords returns up to n distinct non-stop-word tokens of text, most
// frequent first. Ties break by first occurrence so the result is stable.
func ContentWords(text string, n int) []string {
	tokens := Tokenize(text)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tok := range tokens {
		if stopWords[tok] || len(tok) < 2 {
			continue
		}
		if _, ok := firstSeen[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

// sentenceEnd matches a sentence with its terminal punctuation. Non-greedy so
// consecutive sentences split apart.
var sentenceEnd = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`)

// SplitSentences splits text into trimmed sentences. Text without terminal
// punctuation comes back as a single sentence.
func SplitSentences(text string) []string {
	spans := sentenceEnd.FindAllStringIndex(text, -1)
	if spans == nil {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	sentences := make([]string, 0, len(spans)+1)
	for _, span := range spans {
		if s := strings.TrimSpace(text[span[0]:span[1]]); s != "" {
			sentences = append(sentences, s)
		}
	}

	// Trailing text after the last terminator is still a sentence.
	if rest := strings.TrimSpace(text[spans[len(spans)-1][1]:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n+`)

// SplitParagraphs splits text on blank lines into trimmed paragraphs.
func SplitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

package search

import "github.com/poiesic/canonit/chunk"

// containsAllQuestionWords reports whether every content word of the
// question appears in the text. Stop words do not count; a question of
// nothing but stop words never matches.
func containsAllQuestionWords(text, question string) bool {
	words := make([]string, 0, 8)
	for _, token := range chunk.Tokenize(question) {
		if !chunk.IsStopWord(token) {
			words = append(words, token)
		}
	}
	if len(words) == 0 {
		return false
	}

	present := make(map[string]bool)
	for _, token := range chunk.Tokenize(text) {
		present[token] = true
	}

	for _, word := range words {
		if !present[word] {
			return false
		}
	}
	return true
}

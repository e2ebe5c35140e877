package validate

import (
	"strings"

	"github.com/poiesic/canonit/chunk"
)

// Negation and prohibition markers checked per token. Zero quantities are
// handled separately since "0", "0.0" and similar all tokenize to digit runs.
var negationMarkers = map[string]bool{
	"no": true, "not": true, "never": true, "none": true, "nothing": true,
	"cannot": true, "can't": true, "won't": true, "don't": true, "doesn't": true,
	"didn't": true, "isn't": true, "aren't": true, "wasn't": true, "weren't": true,
	"shouldn't": true, "mustn't": true, "prohibited": true, "forbidden": true,
	"banned": true, "disallowed": true, "without": true, "excluded": true,
	"denied": true, "zero": true,
}

// HasNegation reports whether the text contains a negation or prohibition
// marker, counting zero quantities ("0 days") as negation.
func HasNegation(text string) bool {
	for _, tok := range chunk.Tokenize(text) {
		// The tokenizer keeps typographic apostrophes; the marker table
		// uses straight ones.
		tok = strings.ReplaceAll(tok, "’", "'")
		if negationMarkers[tok] {
			return true
		}
		if isZeroQuantity(tok) {
			return true
		}
	}
	return false
}

// NegationAsymmetry reports whether exactly one of the two texts carries
// negation markers. Both negated or both plain is symmetric: the texts
// agree in polarity even if they disagree in wording.
func NegationAsymmetry(a, b string) bool {
	return HasNegation(a) != HasNegation(b)
}

// isZeroQuantity matches digit-only tokens whose numeric value is zero.
func isZeroQuantity(tok string) bool {
	if len(tok) == 0 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, r := range tok {
		if r != '0' {
			return false
		}
	}
	return true
}

// LexicalOverlap returns the Jaccard overlap of the two texts' content
// word sets. 1.0 means identical vocabulary, 0.0 means disjoint.
func LexicalOverlap(a, b string) float32 {
	setA := contentWordSet(a)
	setB := contentWordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float32(intersection) / float32(union)
}

func contentWordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range chunk.Tokenize(text) {
		if chunk.IsStopWord(tok) || len(tok) < 2 {
			continue
		}
		set[tok] = true
	}
	return set
}

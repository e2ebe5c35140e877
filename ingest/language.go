package ingest

import (
	"github.com/poiesic/canonit/chunk"
	"github.com/poiesic/canonit/extract"
)

const (
	languageEnglish      = "en"
	languageUndetermined = "und"
)

// Thresholds for the stop-word share heuristic below. English prose runs
// well above 15% function words; tables and code-heavy text sit lower, but
// they rarely dominate a whole document.
const (
	languageMinTokens = 20
	languageStopShare = 0.15
)

// detectLanguage guesses the document language from its extracted text.
// Source files carry no language metadata, so this leans on the share of
// common English function words and only ever answers "en" or "und".
func detectLanguage(segments []extract.Segment) string {
	tokens := 0
	stops := 0
	for _, seg := range segments {
		for _, tok := range chunk.Tokenize(seg.Text) {
			tokens++
			if chunk.IsStopWord(tok) {
				stops++
			}
		}
	}

	if tokens < languageMinTokens {
		return languageUndetermined
	}
	if float64(stops)/float64(tokens) >= languageStopShare {
		return languageEnglish
	}
	return languageUndetermined
}

package ingest

import (
	"strings"
	"testing"

	"github.com/poiesic/canonit/extract"
)

func TestDetectLanguage(t *testing.T) {
	english := "The vacation policy covers all of the employees and is described " +
		"in the handbook, which explains when days can be taken and how they are approved."

	tests := []struct {
		name     string
		segments []extract.Segment
		want     string
	}{
		{"english prose", []extract.Segment{{Text: english}}, "en"},
		{"split across segments", []extract.Segment{{Text: english[:40]}, {Text: english[40:]}}, "en"},
		{"too short", []extract.Segment{{Text: "The vacation policy."}}, "und"},
		{"no function words", []extract.Segment{{Text: strings.Repeat("alpha beta gamma delta ", 8)}}, "und"},
		{"empty", nil, "und"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectLanguage(tt.segments); got != tt.want {
				t.Errorf("detectLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

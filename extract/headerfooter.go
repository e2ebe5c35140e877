package extract

import (
	"regexp"
	"strings"
)

// Lines at least this common across segments are treated as running
// headers or footers.
const recurringMinSegments = 3

// Headers and footers are short. Longer recurring lines are real content
// (boilerplate paragraphs stay in).
const recurringMaxLen = 80

var bareNumber = regexp.MustCompile(`^\d{1,4}$`)

// FilterRecurring removes running header and footer lines: short lines that
// repeat across three or more segments, and lines holding nothing but a page
// number. Segments left empty after filtering are dropped.
func FilterRecurring(segments []Segment) []Segment {
	if len(segments) < recurringMinSegments {
		return dropBareNumbers(segments)
	}

	// Count distinct segments each candidate line appears in.
	seenIn := make(map[string]int)
	for _, seg := range segments {
		lines := make(map[string]bool)
		for _, line := range strings.Split(seg.Text, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || len(trimmed) > recurringMaxLen {
				continue
			}
			lines[trimmed] = true
		}
		for line := range lines {
			seenIn[line]++
		}
	}

	recurring := make(map[string]bool)
	for line, n := range seenIn {
		if n >= recurringMinSegments {
			recurring[line] = true
		}
	}

	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		var kept []string
		for _, line := range strings.Split(seg.Text, "\n") {
			trimmed := strings.TrimSpace(line)
			if recurring[trimmed] || bareNumber.MatchString(trimmed) {
				continue
			}
			kept = append(kept, line)
		}
		seg.Text = strings.TrimSpace(strings.Join(kept, "\n"))
		if seg.Text != "" {
			out = append(out, seg)
		}
	}
	return out
}

func dropBareNumbers(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		var kept []string
		for _, line := range strings.Split(seg.Text, "\n") {
			if bareNumber.MatchString(strings.TrimSpace(line)) {
				continue
			}
			kept = append(kept, line)
		}
		seg.Text = strings.TrimSpace(strings.Join(kept, "\n"))
		if seg.Text != "" {
			out = append(out, seg)
		}
	}
	return out
}

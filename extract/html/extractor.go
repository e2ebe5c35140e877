package html

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/poiesic/canonit/extract"
)

var _ extract.Extractor = (*Extractor)(nil)

// Tags removed wholesale before any text is read.
const strippedTags = "script, style, noscript, svg, head, nav, header, footer, aside, form"

// Block-level elements that carry readable text, in document order.
const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, pre, table"

// Containers tried in order to locate the main content before falling back
// to the whole body.
var mainSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

// Extractor converts HTML files to text segments. Navigation and other
// boilerplate tags are stripped; headings become segment sections and tables
// are flattened row by row.
type Extractor struct{}

// New creates an HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Extract parses the file and walks its block elements in document order,
// grouping text under the nearest preceding heading.
func (e *Extractor) Extract(_ context.Context, path string) ([]extract.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrUnreadable, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrUnreadable, err)
	}

	doc.Find(strippedTags).Remove()
	root := mainContent(doc)

	var segments []extract.Segment
	var body []string
	section := ""

	flush := func() {
		if len(body) == 0 {
			return
		}
		segments = append(segments, extract.Segment{
			Text:    strings.Join(body, "\n\n"),
			Section: section,
		})
		body = body[:0]
	}

	root.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		// Nested blocks are covered by their enclosing block's text.
		if sel.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}

		switch goquery.NodeName(sel) {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			flush()
			section = cleanLine(sel.Text())
		case "table":
			flush()
			if text := flattenTable(sel); text != "" {
				segments = append(segments, extract.Segment{Text: text, Section: section, Table: true})
			}
		default:
			if line := cleanLine(sel.Text()); line != "" {
				body = append(body, line)
			}
		}
	})
	flush()

	// Documents without block markup still count if the body has bare text.
	if len(segments) == 0 {
		if text := cleanLine(root.Text()); text != "" {
			segments = append(segments, extract.Segment{Text: text})
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", extract.ErrNoText, path)
	}
	return segments, nil
}

func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range mainSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel.First()
		}
	}
	return doc.Find("body")
}

func flattenTable(table *goquery.Selection) string {
	var rows []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			if text := cleanLine(cell.Text()); text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	})
	return strings.Join(rows, "\n")
}

// cleanLine collapses runs of whitespace, including newlines from the HTML
// source formatting, into single spaces.
func cleanLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Segment is one block of extracted text with its provenance.
// Segments arrive in document order.
type Segment struct {
	Text    string
	Page    int    // 1-based for paginated formats, 0 otherwise
	Section string // nearest heading, empty when the format has none
	Table   bool   // text flattened from a table structure
}

// Extractor produces plain text segments from one source file format.
//
// Implementations must be side-effect free: the returned segments are the
// only output, and the source file is never modified.
type Extractor interface {
	// Extract parses the file at path into ordered segments.
	Extract(ctx context.Context, path string) ([]Segment, error)

	// Extensions lists the lowercase file extensions (with leading dot)
	// this extractor handles.
	Extensions() []string
}

// Registry routes files to extractors by extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a registry from the given extractors. A later extractor
// claiming an already-registered extension wins.
func NewRegistry(extractors ...Extractor) *Registry {
	byExt := make(map[string]Extractor)
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			byExt[strings.ToLower(ext)] = e
		}
	}
	return &Registry{byExt: byExt}
}

// ForFile returns the extractor registered for the file's extension.
func (r *Registry) ForFile(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return e, nil
}

// Supported reports whether the registry can extract the file.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract selects the extractor for path and runs it.
func (r *Registry) Extract(ctx context.Context, path string) ([]Segment, error) {
	e, err := r.ForFile(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, path)
}

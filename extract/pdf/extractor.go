package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/poiesic/canonit/extract"
)

const toolName = "pdftotext"

var _ extract.Extractor = (*Extractor)(nil)

// Runner executes an external command and returns its stdout. It exists so
// tests can substitute the pdftotext invocation.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor converts PDF files to text by shelling out to pdftotext from
// poppler. Pages arrive as separate segments.
type Extractor struct {
	runner Runner
}

// New creates a PDF extractor using the real pdftotext binary.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner Runner) *Extractor {
	return &Extractor{runner: runner}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract runs pdftotext on the file and splits its output on form feeds,
// one segment per page. Recurring header and footer lines are removed.
func (e *Extractor) Extract(ctx context.Context, path string) ([]extract.Segment, error) {
	out, err := e.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrToolNotFound, err)
		}
		return nil, unreadable(err)
	}

	var segments []extract.Segment
	for i, page := range strings.Split(string(out), "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		segments = append(segments, extract.Segment{
			Text: strings.TrimSpace(page),
			Page: i + 1,
		})
	}

	segments = extract.FilterRecurring(segments)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", extract.ErrNoText, path)
	}
	return segments, nil
}

// unreadable wraps a pdftotext failure, surfacing the tool's stderr when it
// said anything useful (wrong password, damaged xref, ...).
func unreadable(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if detail := firstLine(string(exitErr.Stderr)); detail != "" {
			return fmt.Errorf("%w: %s: %s", extract.ErrUnreadable, toolName, detail)
		}
	}
	return fmt.Errorf("%w: %s: %v", extract.ErrUnreadable, toolName, err)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// CheckAvailable reports whether pdftotext is on the PATH. The CLI calls
// this before an ingestion run that includes PDF files.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}
	return nil
}

// InstallInstructions returns a hint for installing the pdftotext tool.
func InstallInstructions() string {
	return "pdftotext is part of poppler:\n" +
		"  macOS:         brew install poppler\n" +
		"  Debian/Ubuntu: apt install poppler-utils\n" +
		"  Fedora:        dnf install poppler-utils"
}

package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/canonit/manifest"
)

// Report summarizes one ingestion run. It is safe to marshal at any point;
// Finish stamps the end time and processing duration.
type Report struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// ProcessingTime is FinishedAt - StartedAt in time.Duration notation.
	ProcessingTime string `json:"processing_time"`

	DocumentsProcessed int `json:"documents_processed"`
	DocumentsSkipped   int `json:"documents_skipped"`
	DocumentsRejected  int `json:"documents_rejected"`

	ChunksCreated               int `json:"chunks_created"`
	ChunksRejectedRelevance     int `json:"chunks_rejected_relevance"`
	ChunksRejectedContradiction int `json:"chunks_rejected_contradiction"`
	ChunksRejectedDuplicate     int `json:"chunks_rejected_duplicate"`
	ChunksFailedEmbedding       int `json:"chunks_failed_embedding"`

	TopicsExtracted int `json:"topics_extracted"`

	RejectedDocuments []RejectedDocument `json:"rejected_documents,omitempty"`
}

// RejectedDocument names a document that reached a terminal rejection
// state and why.
type RejectedDocument struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// NewReport starts a report for one run.
func NewReport(source Source) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		Source:    source.String(),
		StartedAt: time.Now().UTC(),
	}
}

// ObserveTally folds one document's validation tally into the run totals.
func (r *Report) ObserveTally(t manifest.Tally) {
	r.ChunksCreated += t.Accepted
	r.ChunksRejectedRelevance += t.RejectedRelevance
	r.ChunksRejectedContradiction += t.RejectedContradiction
	r.ChunksRejectedDuplicate += t.RejectedDuplicate
	r.ChunksFailedEmbedding += t.FailedEmbedding
}

// RejectDocument records a terminal rejection.
func (r *Report) RejectDocument(path string, reason error) {
	r.DocumentsRejected++
	r.RejectedDocuments = append(r.RejectedDocuments, RejectedDocument{
		Path:   path,
		Reason: reason.Error(),
	})
}

// Finish stamps the end of the run.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
	r.ProcessingTime = r.Duration().String()
}

// Duration returns the wall-clock time of the run so far.
func (r *Report) Duration() time.Duration {
	end := r.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(r.StartedAt)
}

// ChunksRejected returns the total chunks rejected by semantic validation.
func (r *Report) ChunksRejected() int {
	return r.ChunksRejectedRelevance + r.ChunksRejectedContradiction + r.ChunksRejectedDuplicate
}

// Failed reports whether any document hit a terminal rejection. Callers
// use this for exit codes; chunk-level rejections alone are expected
// outcomes, not failures.
func (r *Report) Failed() bool {
	return r.DocumentsRejected > 0
}

// WriteFile writes the report as indented JSON to path, creating parent
// directories as needed.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

package ingest

import (
	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/manifest"
)

// Terminal per-document states passed to Monitor.DocumentFinished.
// Intermediate states (validated, chunked, embedded, screened, stored) are
// logged at debug level rather than surfaced here.
const (
	StateCommitted          = "committed"
	StateSkipped            = "skipped"
	StateRejectedFormat     = "rejected_format"
	StateRejectedValidation = "rejected_validation"
)

// Monitor receives progress callbacks during a run. Callbacks run on the
// ingestion goroutine, so implementations must return quickly.
type Monitor interface {
	// RunStarted fires once after discovery with the number of documents
	// selected for this run.
	RunStarted(total int)

	// DocumentStarted fires before a document is processed. Skipped
	// documents never see it.
	DocumentStarted(doc *core.SourceDocument)

	// DocumentFinished fires when a document reaches a terminal state for
	// this run, with the document's validation tally.
	DocumentFinished(doc *core.SourceDocument, state string, tally manifest.Tally)

	// RunFinished fires once with the completed report, also when the run
	// aborts early.
	RunFinished(report *Report)
}

type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) RunStarted(_ int)                                                    {}
func (n *noopMonitor) DocumentStarted(_ *core.SourceDocument)                              {}
func (n *noopMonitor) DocumentFinished(_ *core.SourceDocument, _ string, _ manifest.Tally) {}
func (n *noopMonitor) RunFinished(_ *Report)                                               {}

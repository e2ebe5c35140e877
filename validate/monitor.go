package validate

import (
	"log/slog"

	"github.com/poiesic/canonit/core"
)

// Monitor provides hooks to observe validation decisions.
// Implement this interface to audit why chunks were accepted or rejected.
type Monitor interface {
	Start(text string)
	RelevanceChecked(result core.CheckResult, topic *core.Topic)
	NeighborsRetrieved(neighbors []*core.ScoredChunk)
	ContradictionChecked(result core.CheckResult)
	DuplicateChecked(result core.CheckResult)
	Finish(outcome *core.ValidationOutcome)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                     {}
func (n *noopMonitor) RelevanceChecked(_ core.CheckResult, _ *core.Topic) {}
func (n *noopMonitor) NeighborsRetrieved(_ []*core.ScoredChunk)           {}
func (n *noopMonitor) ContradictionChecked(_ core.CheckResult)            {}
func (n *noopMonitor) DuplicateChecked(_ core.CheckResult)                {}
func (n *noopMonitor) Finish(_ *core.ValidationOutcome)                   {}

// LogMonitor writes each validation step to a logger at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ Monitor = (*LogMonitor)(nil)

// NewLogMonitor creates a Monitor that logs validation steps.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "validate")}
}

func (m *LogMonitor) Start(text string) {
	m.logger.Debug("validating chunk", "chars", len(text))
}

func (m *LogMonitor) RelevanceChecked(result core.CheckResult, topic *core.Topic) {
	name := ""
	if topic != nil {
		name = topic.Name
	}
	m.logger.Debug("relevance checked", "passed", result.Passed, "score", result.Score, "topic", name)
}

func (m *LogMonitor) NeighborsRetrieved(neighbors []*core.ScoredChunk) {
	m.logger.Debug("authoritative neighbors retrieved", "count", len(neighbors))
}

func (m *LogMonitor) ContradictionChecked(result core.CheckResult) {
	m.logger.Debug("contradiction checked", "passed", result.Passed, "score", result.Score)
}

func (m *LogMonitor) DuplicateChecked(result core.CheckResult) {
	m.logger.Debug("duplicate checked", "passed", result.Passed, "score", result.Score)
}

func (m *LogMonitor) Finish(outcome *core.ValidationOutcome) {
	m.logger.Debug("validation finished", "accepted", outcome.Accepted, "rejectedBy", outcome.RejectedBy)
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/canonit/ai"
	"github.com/poiesic/canonit/chunk"
	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/extract"
	"github.com/poiesic/canonit/manifest"
	"github.com/poiesic/canonit/storage"
	"github.com/poiesic/canonit/validate"
)

const (
	// Embedding and store calls retry once before failing.
	retryAttempts  = 2
	retryBaseDelay = 500 * time.Millisecond

	// embedBatchSize bounds the texts per EmbedTexts call. Batches go
	// through the worker pool in parallel; everything else is sequential.
	embedBatchSize = 16
)

// Source selects which part of the corpus a run processes.
type Source int

const (
	// SourceAll processes the authoritative source, then external content.
	SourceAll Source = iota
	// SourceAuthoritative processes only the authoritative source.
	SourceAuthoritative
	// SourceExternal processes only external content. Requires topics from
	// an earlier authoritative ingestion.
	SourceExternal
)

// String returns the CLI name of the source selector.
func (s Source) String() string {
	switch s {
	case SourceAll:
		return "all"
	case SourceAuthoritative:
		return "authoritative"
	case SourceExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParseSource maps a CLI selector to a Source. The empty string means all.
func ParseSource(s string) (Source, error) {
	switch s {
	case "all", "":
		return SourceAll, nil
	case "authoritative":
		return SourceAuthoritative, nil
	case "external":
		return SourceExternal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// Includes reports whether documents of the given origin are in scope.
func (s Source) Includes(origin core.Origin) bool {
	switch s {
	case SourceAuthoritative:
		return origin == core.OriginAuthoritative
	case SourceExternal:
		return origin == core.OriginExternal
	default:
		return true
	}
}

// Pipeline orchestrates ingestion runs: discovery, extraction, chunking,
// embedding, semantic screening of external content, storage, and the
// manifest commit. It owns the manifest for the duration of a run; all
// store and manifest writes happen on the run goroutine.
type Pipeline struct {
	registry *extract.Registry
	splitter *chunk.Splitter
	embedder ai.Embedder
	chunks   storage.ChunkRepository
	topics   storage.TopicRepository
	tracker  *manifest.Tracker

	pool          *ants.Pool
	keywordCount  int
	validatorOpts []validate.Option
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingest")
		return nil
	}
}

// WithValidatorOptions forwards options to the semantic validator built for
// the external phase of each run.
func WithValidatorOptions(opts ...validate.Option) Option {
	return func(p *Pipeline) error {
		p.validatorOpts = append(p.validatorOpts, opts...)
		return nil
	}
}

// WithKeywordCount sets how many keywords each extracted topic keeps.
func WithKeywordCount(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidKeywordCount, n)
		}
		p.keywordCount = n
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given components.
func NewPipeline(
	registry *extract.Registry,
	splitter *chunk.Splitter,
	embedder ai.Embedder,
	chunks storage.ChunkRepository,
	topics storage.TopicRepository,
	tracker *manifest.Tracker,
	opts ...Option,
) (*Pipeline, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		registry:     registry,
		splitter:     splitter,
		embedder:     embedder,
		chunks:       chunks,
		topics:       topics,
		tracker:      tracker,
		pool:         pool,
		keywordCount: defaultKeywordCount,
		logger:       slog.Default().With("component", "ingest"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// RunOptions holds optional parameters for a run.
type RunOptions struct {
	// Source restricts the run to part of the corpus. Zero is SourceAll.
	Source Source

	// Rebuild wipes stored topics, chunks, and the manifest before the run,
	// then processes every document regardless of checksum.
	Rebuild bool

	// ValidateOnly runs extraction, chunking, embedding, and screening
	// without writing anything. External chunks are screened against the
	// currently stored topics and authoritative chunks.
	ValidateOnly bool

	// Snapshot is the configuration fingerprint to record in the manifest.
	// A changed snapshot without Rebuild aborts the run, since chunks
	// embedded under different settings are not comparable. The zero value
	// skips the check.
	Snapshot manifest.Snapshot

	// Monitor receives progress callbacks. Nil means none.
	Monitor Monitor
}

// Run executes one ingestion run over the corpus at root and returns its
// report. Concurrent runs against the same manifest are refused through a
// lock file next to it. Once the lock is held the returned report is
// non-nil, also when the run fails partway.
func (p *Pipeline) Run(ctx context.Context, root string, opts *RunOptions) (*Report, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	lock, err := manifest.AcquireRunLock(manifest.LockPath(p.tracker.Path()))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			p.logger.Warn("failed to release run lock", "err", err)
		}
	}()

	report := NewReport(opts.Source)
	defer func() {
		report.Finish()
		monitor.RunFinished(report)
	}()

	if opts.Rebuild {
		if !opts.ValidateOnly {
			if err := p.wipe(ctx, opts.Snapshot); err != nil {
				return report, err
			}
		}
	} else if opts.Snapshot != (manifest.Snapshot{}) {
		if err := p.tracker.VerifySnapshot(opts.Snapshot); err != nil {
			return report, err
		}
	}

	docs, err := Discover(root, p.registry, p.logger)
	if err != nil {
		return report, err
	}
	var selected []*core.SourceDocument
	for _, doc := range docs {
		if opts.Source.Includes(doc.Origin) {
			selected = append(selected, doc)
		}
	}

	monitor.RunStarted(len(selected))
	p.logger.Info("ingestion run started",
		"run_id", report.RunID,
		"documents", len(selected),
		"source", opts.Source.String(),
		"rebuild", opts.Rebuild,
		"validate_only", opts.ValidateOnly,
	)

	// The authoritative source goes first and to completion: external
	// screening needs its topics and chunks in place.
	if err := p.phase(ctx, selected, core.OriginAuthoritative, nil, root, opts, report, monitor); err != nil {
		return report, err
	}

	hasExternal := false
	for _, doc := range selected {
		if doc.Origin == core.OriginExternal {
			hasExternal = true
			break
		}
	}
	if hasExternal {
		stored, err := p.topics.GetTopics(ctx)
		if err != nil {
			return report, err
		}
		if len(stored) == 0 {
			return report, ErrNoTopics
		}

		// Built fresh per run so it sees the topics stored above.
		vopts := append([]validate.Option{validate.WithLogger(p.logger)}, p.validatorOpts...)
		validator, err := validate.NewValidator(p.chunks, p.topics, vopts...)
		if err != nil {
			return report, err
		}

		if err := p.phase(ctx, selected, core.OriginExternal, validator, root, opts, report, monitor); err != nil {
			return report, err
		}
	}

	if !opts.ValidateOnly {
		if err := p.reconcileTopicCounts(ctx); err != nil {
			return report, err
		}
	}

	p.logger.Info("ingestion run finished",
		"run_id", report.RunID,
		"processed", report.DocumentsProcessed,
		"skipped", report.DocumentsSkipped,
		"rejected", report.DocumentsRejected,
		"chunks", report.ChunksCreated,
		"duration", report.Duration().Round(time.Millisecond).String(),
	)
	return report, nil
}

// phase processes the selected documents of one origin in discovery order.
// validator is nil for the authoritative phase. Cancellation is honored
// between documents, never mid-document, so every committed document is
// complete.
func (p *Pipeline) phase(
	ctx context.Context,
	docs []*core.SourceDocument,
	origin core.Origin,
	validator *validate.Validator,
	root string,
	opts *RunOptions,
	report *Report,
	monitor Monitor,
) error {
	for _, doc := range docs {
		if doc.Origin != origin {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if !opts.Rebuild && !p.tracker.ShouldReprocess(doc) {
			report.DocumentsSkipped++
			p.logger.Debug("document unchanged, skipping", "path", doc.Path)
			monitor.DocumentFinished(doc, StateSkipped, manifest.Tally{})
			continue
		}

		monitor.DocumentStarted(doc)
		state, tally, err := p.processDocument(ctx, doc, validator, root, opts, report)
		if err != nil {
			return fmt.Errorf("processing %s: %w", doc.Path, err)
		}

		if state == StateCommitted {
			report.DocumentsProcessed++
		}
		report.ObserveTally(tally)
		monitor.DocumentFinished(doc, state, tally)
	}
	return nil
}

// processDocument runs one document through the pipeline and returns its
// terminal state for this run. Format and validation rejections are
// terminal for the document only; a non-nil error aborts the run.
func (p *Pipeline) processDocument(
	ctx context.Context,
	doc *core.SourceDocument,
	validator *validate.Validator,
	root string,
	opts *RunOptions,
	report *Report,
) (string, manifest.Tally, error) {
	var tally manifest.Tally
	logger := p.logger.With("path", doc.Path, "origin", doc.Origin.String())

	// Clear chunks left by an earlier version of this document so a changed
	// file never strands stale content in the store.
	if !opts.ValidateOnly {
		removed, err := p.chunks.DeleteDocumentChunks(ctx, doc.ID())
		if err != nil {
			return "", tally, fmt.Errorf("clearing stale chunks: %w", err)
		}
		if removed > 0 {
			logger.Debug("removed stale chunks", "count", removed)
		}
	}

	segments, err := p.registry.Extract(ctx, filepath.Join(root, filepath.FromSlash(doc.Path)))
	if err != nil {
		if ctx.Err() != nil {
			return "", tally, ctx.Err()
		}
		state, rerr := p.rejectFormat(doc, err, opts, report, logger)
		return state, tally, rerr
	}
	doc.SegmentCount = len(segments)
	doc.Language = detectLanguage(segments)
	logger.Debug("document validated", "segments", len(segments), "language", doc.Language)

	candidates := p.splitter.Split(segments)
	if len(candidates) == 0 {
		state, rerr := p.rejectFormat(doc, extract.ErrNoText, opts, report, logger)
		return state, tally, rerr
	}
	logger.Debug("document chunked", "candidates", len(candidates))

	if doc.Origin == core.OriginAuthoritative {
		extracted, err := p.storeTopics(ctx, doc, segments, opts, logger)
		if err != nil {
			return "", tally, err
		}
		report.TopicsExtracted += extracted
	}

	records, failures, err := p.embedChunks(ctx, doc, candidates)
	if err != nil {
		return "", tally, err
	}
	tally.FailedEmbedding = failures
	logger.Debug("document embedded", "chunks", len(records), "failed", failures)

	// Screening applies to external chunks only; authoritative content is
	// the reference and is stored as-is.
	accepted := records
	if doc.Origin == core.OriginExternal {
		accepted, err = p.screen(ctx, validator, records, &tally, logger)
		if err != nil {
			return "", tally, err
		}
		logger.Debug("document screened", "accepted", len(accepted), "rejected", tally.Rejected())
	} else {
		tally.Accepted = len(records)
	}

	if len(accepted) == 0 {
		// Nothing survived screening or embedding. Terminal for the
		// document, but still recorded in the manifest so an unchanged
		// file is not re-embedded on every run.
		reason := fmt.Errorf("no chunks stored: %d rejected, %d failed embedding",
			tally.Rejected(), tally.FailedEmbedding)
		logger.Warn("document rejected", "state", StateRejectedValidation, "err", reason)
		report.RejectDocument(doc.Path, reason)
		if !opts.ValidateOnly {
			if err := p.commit(doc, tally, 0); err != nil {
				return "", tally, err
			}
		}
		return StateRejectedValidation, tally, nil
	}

	if opts.ValidateOnly {
		logger.Info("document validated, writes skipped", "chunks", len(accepted))
		return StateCommitted, tally, nil
	}

	// Store, then commit the manifest entry. A store failure after the
	// retry is fatal for the run and leaves the manifest untouched for
	// this document.
	err = RetryWithBackoff(ctx, func() error {
		return p.chunks.UpsertChunks(ctx, accepted...)
	}, retryAttempts, retryBaseDelay)
	if err != nil {
		return "", tally, fmt.Errorf("storing chunks: %w", err)
	}
	logger.Debug("document stored", "chunks", len(accepted))

	if err := p.commit(doc, tally, len(accepted)); err != nil {
		return "", tally, err
	}
	logger.Info("document committed", "chunks", len(accepted), "rejected", tally.Rejected())

	return StateCommitted, tally, nil
}

// rejectFormat records a terminal format rejection. Any manifest entry from
// an earlier version of the document is forgotten so its absence is visible.
func (p *Pipeline) rejectFormat(doc *core.SourceDocument, reason error, opts *RunOptions, report *Report, logger *slog.Logger) (string, error) {
	logger.Warn("document rejected", "state", StateRejectedFormat, "err", reason)
	report.RejectDocument(doc.Path, reason)
	if !opts.ValidateOnly {
		if err := p.tracker.Forget(doc.Path); err != nil {
			return StateRejectedFormat, err
		}
	}
	return StateRejectedFormat, nil
}

// storeTopics extracts topics from an authoritative document and stores
// them with their embeddings. Failures here are fatal for the run: without
// topic vectors there is nothing to screen external content against.
func (p *Pipeline) storeTopics(ctx context.Context, doc *core.SourceDocument, segments []extract.Segment, opts *RunOptions, logger *slog.Logger) (int, error) {
	topics := BuildTopics(doc, segments, p.keywordCount)
	if len(topics) == 0 {
		return 0, nil
	}

	texts := make([]string, len(topics))
	for i, t := range topics {
		texts[i] = t.EmbeddingText()
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, retryAttempts, retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("embedding topics: %w", err)
	}
	if len(vectors) != len(topics) {
		return 0, fmt.Errorf("topic embedding count mismatch: expected %d, got %d", len(topics), len(vectors))
	}
	for i, t := range topics {
		t.Vector = vectors[i]
	}

	if opts.ValidateOnly {
		logger.Debug("validate-only, topic writes skipped", "topics", len(topics))
		return len(topics), nil
	}

	err = RetryWithBackoff(ctx, func() error {
		return p.topics.PutTopics(ctx, topics...)
	}, retryAttempts, retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("storing topics: %w", err)
	}
	logger.Info("topics extracted", "count", len(topics))

	return len(topics), nil
}

// embedChunks embeds the candidates in parallel batches through the worker
// pool and assembles records for the chunks that embedded cleanly. A batch
// retries once; chunks of a batch that still fails are dropped and counted,
// never fatal. Batching is purely a throughput concern, the per-item
// vectors match single-item embedding exactly.
func (p *Pipeline) embedChunks(ctx context.Context, doc *core.SourceDocument, candidates []chunk.Candidate) ([]*storage.ChunkRecord, int, error) {
	vectors := make([][]float32, len(candidates))

	var wg sync.WaitGroup
	for start := 0; start < len(candidates); start += embedBatchSize {
		end := min(start+embedBatchSize, len(candidates))
		texts := make([]string, end-start)
		for i, c := range candidates[start:end] {
			texts[i] = c.Text
		}

		offset := start
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			var batch [][]float32
			retryErr := RetryWithBackoff(ctx, func() error {
				var embedErr error
				batch, embedErr = p.embedder.EmbedTexts(ctx, texts)
				return embedErr
			}, retryAttempts, retryBaseDelay)
			if retryErr != nil {
				p.logger.Warn("embedding batch failed", "path", doc.Path, "offset", offset, "size", len(texts), "err", retryErr)
				return
			}
			if len(batch) != len(texts) {
				p.logger.Warn("embedding batch size mismatch", "path", doc.Path, "expected", len(texts), "got", len(batch))
				return
			}

			// Batches write disjoint ranges, so no lock is needed.
			copy(vectors[offset:], batch)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, 0, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	dims := p.embedder.Dimensions()
	records := make([]*storage.ChunkRecord, 0, len(candidates))
	failed := 0
	for i, c := range candidates {
		if err := core.ValidateVector(vectors[i], dims); err != nil {
			failed++
			if vectors[i] != nil {
				p.logger.Warn("dropping chunk with invalid vector", "path", doc.Path, "seq", i, "err", err)
			}
			continue
		}

		id := core.ChunkID(doc.Checksum, i, c.Text)
		records = append(records, &storage.ChunkRecord{
			Chunk: &core.Chunk{
				Id:         id,
				DocumentId: doc.ID(),
				Seq:        i,
				Text:       c.Text,
				TokenCount: c.Tokens,
				Vector:     vectors[i],
			},
			Meta: &core.ChunkMetadata{
				ChunkId:          id,
				DocumentId:       doc.ID(),
				DocumentPath:     doc.Path,
				DocumentChecksum: doc.Checksum,
				Origin:           doc.Origin,
				Page:             c.Page,
				Section:          c.Section,
			},
		})
	}

	return records, failed, nil
}

// screen runs external chunk records through the semantic validator in
// order. Rejections are tallied and dropped; only infrastructure failures
// return an error.
func (p *Pipeline) screen(
	ctx context.Context,
	validator *validate.Validator,
	records []*storage.ChunkRecord,
	tally *manifest.Tally,
	logger *slog.Logger,
) ([]*storage.ChunkRecord, error) {
	accepted := make([]*storage.ChunkRecord, 0, len(records))
	for _, rec := range records {
		outcome, topic, err := validator.Validate(ctx, rec.Chunk.Text, rec.Chunk.Vector)
		if err != nil {
			return nil, fmt.Errorf("validating chunk %d: %w", rec.Chunk.Seq, err)
		}

		tally.Observe(outcome)
		if outcome.Rejected() {
			logger.Debug("chunk rejected", "seq", rec.Chunk.Seq, "check", outcome.RejectedBy)
			continue
		}

		rec.Meta.Outcome = outcome
		if topic != nil {
			rec.Meta.Topic = topic.Name
		}
		accepted = append(accepted, rec)
	}
	return accepted, nil
}

// commit writes the document's manifest entry. This is the last step for a
// document; a crash before it leaves the manifest in its pre-document
// state, and the next run reprocesses the document from scratch.
func (p *Pipeline) commit(doc *core.SourceDocument, tally manifest.Tally, chunkCount int) error {
	entry := manifest.Entry{
		Checksum:   doc.Checksum,
		ChunkCount: chunkCount,
		Tally:      tally,
	}
	if err := p.tracker.Record(doc.Path, entry); err != nil {
		return fmt.Errorf("recording manifest entry: %w", err)
	}
	return nil
}

// reconcileTopicCounts aligns each topic's accepted-chunk count with what
// the store actually holds. Counting after the run keeps the numbers right
// when reprocessing removed previously accepted chunks, which per-accept
// increments could not see.
func (p *Pipeline) reconcileTopicCounts(ctx context.Context) error {
	topics, err := p.topics.GetTopics(ctx)
	if err != nil {
		return err
	}

	for _, topic := range topics {
		actual, err := p.chunks.CountChunks(ctx, &storage.Filter{
			Origin: core.OriginExternal,
			Topics: []string{topic.Name},
		})
		if err != nil {
			return err
		}
		if delta := actual - topic.ChunkCount; delta != 0 {
			if err := p.topics.IncrementChunkCount(ctx, topic.Id, delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// wipe clears stored topics and chunks and resets the manifest ahead of a
// full rebuild.
func (p *Pipeline) wipe(ctx context.Context, snapshot manifest.Snapshot) error {
	removedTopics, err := p.topics.DeleteAllTopics(ctx)
	if err != nil {
		return fmt.Errorf("rebuild: clearing topics: %w", err)
	}

	ids, err := p.chunks.DocumentIDs(ctx)
	if err != nil {
		return fmt.Errorf("rebuild: listing documents: %w", err)
	}
	removedChunks := 0
	for _, id := range ids {
		n, err := p.chunks.DeleteDocumentChunks(ctx, id)
		if err != nil {
			return fmt.Errorf("rebuild: clearing chunks: %w", err)
		}
		removedChunks += n
	}

	if err := p.tracker.Reset(snapshot); err != nil {
		return fmt.Errorf("rebuild: resetting manifest: %w", err)
	}

	p.logger.Info("store wiped for rebuild", "topics", removedTopics, "chunks", removedChunks)
	return nil
}

// Release frees the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

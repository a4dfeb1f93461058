package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
	"github.com/custodia-labs/sercha-ingest/internal/stages"
)

// Ensure StageExecutor implements the interface.
var _ driving.PipelineRunner = (*StageExecutor)(nil)

// stageSpec describes one derived stage: the columns it reads, the column
// it writes and the transform between them.
type stageSpec struct {
	inputs []domain.Column
	output domain.Column
	run    func(ctx context.Context, key string, in domain.ColumnValues) (string, error)
}

// StageExecutor runs the per-partition stage graph:
//
//	register -> to_markdown -> { to_json | to_plain -> chunk -> embed }
//
// Each stage reads only its declared inputs and writes exactly one column.
// A stage whose inputs are not all populated fails with
// domain.ErrUpstreamNotReady and writes nothing.
type StageExecutor struct {
	records    driven.RecordStore
	source     driven.ObjectSource
	converters driven.ConverterRegistry
	embedder   driven.EmbeddingService
	events     driven.EventPublisher
	chunker    *stages.Chunker
	specs      map[domain.StageName]stageSpec

	// flights holds at most one execution per (key, stage).
	flights singleflight.Group
}

// ExecutorOption configures a StageExecutor.
type ExecutorOption func(*StageExecutor)

// WithEventPublisher publishes an event after every executed stage.
func WithEventPublisher(p driven.EventPublisher) ExecutorOption {
	return func(e *StageExecutor) {
		e.events = p
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *stages.Chunker) ExecutorOption {
	return func(e *StageExecutor) {
		if c != nil {
			e.chunker = c
		}
	}
}

// NewStageExecutor creates an executor.
func NewStageExecutor(
	records driven.RecordStore,
	source driven.ObjectSource,
	converters driven.ConverterRegistry,
	embedder driven.EmbeddingService,
	opts ...ExecutorOption,
) *StageExecutor {
	e := &StageExecutor{
		records:    records,
		source:     source,
		converters: converters,
		embedder:   embedder,
		chunker:    stages.NewChunker(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.specs = e.buildSpecs()
	return e
}

func (e *StageExecutor) buildSpecs() map[domain.StageName]stageSpec {
	return map[domain.StageName]stageSpec{
		domain.StageToMarkdown: {
			inputs: []domain.Column{domain.ColumnSourceLocator},
			output: domain.ColumnMarkdown,
			run:    e.toMarkdown,
		},
		domain.StageToJSON: {
			inputs: []domain.Column{domain.ColumnMarkdown},
			output: domain.ColumnJSON,
			run: func(_ context.Context, key string, in domain.ColumnValues) (string, error) {
				markdown, _ := in.Get(domain.ColumnMarkdown)
				return stages.ToJSON(key, markdown)
			},
		},
		domain.StageToPlain: {
			inputs: []domain.Column{domain.ColumnMarkdown},
			output: domain.ColumnPlain,
			run: func(_ context.Context, _ string, in domain.ColumnValues) (string, error) {
				markdown, _ := in.Get(domain.ColumnMarkdown)
				return stages.ToPlain(markdown), nil
			},
		},
		domain.StageChunk: {
			inputs: []domain.Column{domain.ColumnPlain},
			output: domain.ColumnChunks,
			run: func(_ context.Context, _ string, in domain.ColumnValues) (string, error) {
				plain, _ := in.Get(domain.ColumnPlain)
				return e.chunker.Encode(plain)
			},
		},
		domain.StageEmbed: {
			inputs: []domain.Column{domain.ColumnChunks},
			output: domain.ColumnEmbeddings,
			run: func(ctx context.Context, _ string, in domain.ColumnValues) (string, error) {
				chunks, _ := in.Get(domain.ColumnChunks)
				return stages.EmbedChunks(ctx, e.embedder, chunks)
			},
		},
	}
}

// toMarkdown reads the source bytes and converts them by extension.
func (e *StageExecutor) toMarkdown(ctx context.Context, _ string, in domain.ColumnValues) (string, error) {
	locator, _ := in.Get(domain.ColumnSourceLocator)

	converter, err := e.converters.Lookup(locator)
	if err != nil {
		return "", err
	}

	content, err := e.source.Read(ctx, locator)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", domain.ErrConversion, locator, err)
	}

	markdown, err := converter.Convert(ctx, locator, content)
	if err != nil {
		if errors.Is(err, domain.ErrConversion) || errors.Is(err, domain.ErrUnsupportedFormat) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrConversion, converter.Name(), err)
	}
	return markdown, nil
}

// RunStage executes one stage for key. locator is only used by register.
// Concurrent calls for the same (key, stage) share a single execution.
func (e *StageExecutor) RunStage(ctx context.Context, key string, stage domain.StageName, locator string) error {
	if key == "" {
		return &domain.StageError{Key: key, Stage: stage, Err: fmt.Errorf("%w: empty key", domain.ErrInvalidInput)}
	}

	flight := key + "\x00" + string(stage)
	if stage == domain.StageRegister {
		// Registrations with different locators must each reach the store.
		flight += "\x00" + locator
	}
	_, err, _ := e.flights.Do(flight, func() (any, error) {
		return nil, e.runStage(ctx, key, stage, locator)
	})
	if err == nil {
		return nil
	}

	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return err
	}
	return &domain.StageError{Key: key, Stage: stage, Err: err}
}

func (e *StageExecutor) runStage(ctx context.Context, key string, stage domain.StageName, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if stage == domain.StageRegister {
		if locator == "" {
			return fmt.Errorf("%w: empty source locator", domain.ErrInvalidInput)
		}
		created, err := e.records.CreateIfAbsent(ctx, key, locator)
		if err != nil {
			return err
		}
		if created {
			logger.Debug("registered record %s", key)
		}
		return nil
	}

	spec, ok := e.specs[stage]
	if !ok {
		return fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
	}

	values, err := e.records.ReadColumns(ctx, key, spec.inputs...)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: no record for %s", domain.ErrUpstreamNotReady, key)
	}
	if err != nil {
		return err
	}
	if missing := values.Missing(spec.inputs...); len(missing) > 0 {
		return fmt.Errorf("%w: %v not populated", domain.ErrUpstreamNotReady, missing)
	}

	out, err := spec.run(ctx, key, values)
	if err != nil {
		return err
	}

	err = e.records.UpsertColumn(ctx, key, spec.output, out)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: record %s removed during %s", domain.ErrUpstreamNotReady, key, stage)
	}
	return err
}

// Run executes every stage for req in dependency order and waits for the
// graph to settle. A failed stage stops only its own descendants: a
// to_json failure leaves to_plain, chunk and embed running.
func (e *StageExecutor) Run(ctx context.Context, req domain.ExecutionRequest) *domain.PipelineResult {
	r := &pipelineRun{
		executor: e,
		result: &domain.PipelineResult{
			RunID: uuid.New().String(),
			Key:   req.Key,
		},
		locator: req.Locator,
	}

	if r.step(ctx, domain.StageRegister) && r.step(ctx, domain.StageToMarkdown) {
		var g errgroup.Group
		g.Go(func() error {
			r.chain(ctx, domain.StageToJSON)
			return nil
		})
		g.Go(func() error {
			r.chain(ctx, domain.StageToPlain, domain.StageChunk, domain.StageEmbed)
			return nil
		})
		_ = g.Wait()
	}

	r.skipUnrecorded()
	return r.result
}

// pipelineRun accumulates outcomes for one Run.
type pipelineRun struct {
	executor *StageExecutor
	locator  string

	mu     sync.Mutex
	result *domain.PipelineResult
}

// chain runs stages in order, skipping the rest after the first failure.
func (r *pipelineRun) chain(ctx context.Context, names ...domain.StageName) {
	for _, name := range names {
		if !r.step(ctx, name) {
			return
		}
	}
}

// step runs one stage and records its outcome. Returns true on success.
func (r *pipelineRun) step(ctx context.Context, stage domain.StageName) bool {
	key := r.result.Key
	err := r.executor.RunStage(ctx, key, stage, r.locator)

	r.mu.Lock()
	r.result.Outcomes = append(r.result.Outcomes, domain.StageOutcome{Stage: stage, Err: err})
	r.mu.Unlock()

	if err != nil {
		logger.Errorw("stage failed",
			"run_id", r.result.RunID,
			"key", key,
			"stage", string(stage),
			"kind", domain.ErrorKind(err),
			"error", err,
		)
	} else {
		logger.Debug("stage %s ok for %s", stage, key)
	}

	r.executor.publish(ctx, r.result.RunID, key, stage, err)
	return err == nil
}

// skipUnrecorded marks every stage without an outcome as skipped and
// orders outcomes by stage.
func (r *pipelineRun) skipUnrecorded() {
	r.mu.Lock()
	defer r.mu.Unlock()

	recorded := make(map[domain.StageName]bool, len(r.result.Outcomes))
	for _, o := range r.result.Outcomes {
		recorded[o.Stage] = true
	}
	for _, stage := range domain.Stages {
		if !recorded[stage] {
			r.result.Outcomes = append(r.result.Outcomes, domain.StageOutcome{Stage: stage, Skipped: true})
		}
	}

	order := make(map[domain.StageName]int, len(domain.Stages))
	for i, s := range domain.Stages {
		order[s] = i
	}
	sort.SliceStable(r.result.Outcomes, func(i, j int) bool {
		return order[r.result.Outcomes[i].Stage] < order[r.result.Outcomes[j].Stage]
	})
}

// publish reports a stage outcome. Delivery failures are logged only.
func (e *StageExecutor) publish(ctx context.Context, runID, key string, stage domain.StageName, err error) {
	if e.events == nil {
		return
	}
	event := driven.StageEvent{
		RunID:    runID,
		Key:      key,
		Stage:    string(stage),
		Success:  err == nil,
		Occurred: time.Now().UTC(),
	}
	if err != nil {
		event.Kind = domain.ErrorKind(err)
		event.Error = err.Error()
	}
	if pubErr := e.events.Publish(ctx, event); pubErr != nil {
		logger.Warn("publish %s event for %s: %v", stage, key, pubErr)
	}
}

package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// WorkerPool executes pipeline requests concurrently on a bounded pool.
type WorkerPool struct {
	runner driving.PipelineRunner
	pool   *ants.Pool
}

// NewWorkerPool creates a pool of size workers. A size below 1 uses
// half the CPUs, with a minimum of one.
func NewWorkerPool(runner driving.PipelineRunner, size int) (*WorkerPool, error) {
	if size < 1 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p any) {
		logger.Error("pipeline worker panic: %v", p)
	}))
	if err != nil {
		return nil, err
	}
	return &WorkerPool{runner: runner, pool: pool}, nil
}

// RunAll executes every request and waits for all of them to settle.
// Results are returned in request order. Requests for distinct keys run
// in parallel; a failure in one never affects another.
func (p *WorkerPool) RunAll(ctx context.Context, reqs []domain.ExecutionRequest) []*domain.PipelineResult {
	results := make([]*domain.PipelineResult, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = p.run(ctx, req)
		}
		if err := p.pool.Submit(task); err != nil {
			logger.Warn("pool rejected %s, running inline: %v", req.Key, err)
			task()
		}
	}
	wg.Wait()
	return results
}

// run executes one request, turning a panic into a failed result so the
// key still appears in the report.
func (p *WorkerPool) run(ctx context.Context, req domain.ExecutionRequest) (result *domain.PipelineResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("pipeline panic", "key", req.Key, "panic", r)
			result = &domain.PipelineResult{Key: req.Key}
			for i, stage := range domain.Stages {
				if i == 0 {
					result.Outcomes = append(result.Outcomes, domain.StageOutcome{
						Stage: stage,
						Err:   &domain.StageError{Key: req.Key, Stage: stage, Err: fmt.Errorf("panic: %v", r)},
					})
					continue
				}
				result.Outcomes = append(result.Outcomes, domain.StageOutcome{Stage: stage, Skipped: true})
			}
		}
	}()
	return p.runner.Run(ctx, req)
}

// Release stops the pool's workers.
func (p *WorkerPool) Release() {
	p.pool.Release()
}

package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Engine exposes the incremental change-detection tick.
type Engine interface {
	// Tick scans the source against previous, registers every discovered
	// partition, and returns one execution request per distinct key along
	// with the advanced cursor. Calls must be serialised by the caller.
	Tick(ctx context.Context, previous domain.Cursor) ([]domain.ExecutionRequest, domain.Cursor, error)
}

// PipelineRunner executes the stage chain for partitions.
type PipelineRunner interface {
	// Run executes every stage for req in dependency order and blocks
	// until the pipeline settles.
	Run(ctx context.Context, req domain.ExecutionRequest) *domain.PipelineResult

	// RunStage executes a single stage for key.
	RunStage(ctx context.Context, key string, stage domain.StageName, locator string) error
}

// TickReport summarises one scheduled watch tick.
type TickReport struct {
	Previous   domain.Cursor
	Current    domain.Cursor
	Dispatched int
	Results    []*domain.PipelineResult
}

// WatchService runs persisted-cursor ticks and dispatches the resulting work.
type WatchService interface {
	// RunOnce loads the persisted cursor, ticks, executes the resulting
	// requests, and persists the advanced cursor.
	RunOnce(ctx context.Context) (*TickReport, error)

	// Cursor returns the persisted cursor, or 0 when none is stored.
	Cursor(ctx context.Context) (domain.Cursor, error)

	// Reset discards the persisted cursor so the next tick rescans everything.
	Reset(ctx context.Context) error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService runs ticks against a persisted cursor.
// RunOnce calls are serialised so cursor updates never interleave.
type WatchService struct {
	watchID string
	engine  driving.Engine
	pool    *WorkerPool
	cursors driven.CursorStore

	mu sync.Mutex
}

// NewWatchService creates a watch service for watchID.
func NewWatchService(
	watchID string,
	engine driving.Engine,
	pool *WorkerPool,
	cursors driven.CursorStore,
) *WatchService {
	return &WatchService{
		watchID: watchID,
		engine:  engine,
		pool:    pool,
		cursors: cursors,
	}
}

// Cursor returns the persisted cursor, or zero if the watch never ticked.
func (s *WatchService) Cursor(ctx context.Context) (domain.Cursor, error) {
	state, err := s.cursors.Get(ctx, s.watchID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load cursor %s: %w", s.watchID, err)
	}
	return domain.ParseCursor(state.Cursor)
}

// Reset forgets the persisted cursor so the next tick rescans everything.
func (s *WatchService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors.Delete(ctx, s.watchID)
}

// RunOnce loads the cursor, ticks, executes every request and persists
// the advanced cursor. The cursor is saved only after every request has
// settled. Stage failures are reported in the results and never hold the
// cursor back: the partition is registered and can be re-run explicitly.
func (s *WatchService) RunOnce(ctx context.Context) (*driving.TickReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.Cursor(ctx)
	if err != nil {
		return nil, err
	}

	requests, current, err := s.engine.Tick(ctx, previous)
	if err != nil {
		return nil, err
	}

	report := &driving.TickReport{
		Previous:   previous,
		Current:    current,
		Dispatched: len(requests),
	}
	if len(requests) > 0 {
		logger.Infow("dispatching partitions", "watch", s.watchID, "count", len(requests), "cursor", current.String())
		report.Results = s.pool.RunAll(ctx, requests)
	}

	if current != previous {
		state := domain.WatchState{
			WatchID:  s.watchID,
			Cursor:   current.String(),
			LastTick: time.Now(),
		}
		if err := s.cursors.Save(ctx, state); err != nil {
			return report, fmt.Errorf("save cursor %s: %w", s.watchID, err)
		}
	}
	return report, nil
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	watch  driving.WatchService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	nudgeCh chan struct{}
	wg      sync.WaitGroup

	// inFlight prevents a task from overlapping with itself.
	inFlight map[string]bool
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	watch driving.WatchService,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		watch:    watch,
		nudgeCh:  make(chan struct{}, 1),
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("scheduler disabled")
	} else if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// Nudge requests an early watch tick, e.g. after a change notification.
// Nudges arriving while one is pending are merged.
func (s *Scheduler) Nudge() {
	select {
	case s.nudgeCh <- struct{}{}:
	default:
	}
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDWatch); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDWatch, "Watch Tick", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// First start ticks immediately.
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// checkInterval is how often the loop looks for due tasks.
func (s *Scheduler) checkInterval() time.Duration {
	interval := s.config.GetTaskConfig(domain.TaskIDWatch).Interval
	if interval <= 0 || interval > time.Minute {
		return time.Minute
	}
	return interval
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	if !s.config.Enabled {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		}
	}

	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.checkInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		case <-s.nudgeCh:
			s.runTaskByID(ctx, domain.TaskIDWatch)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTaskByID runs a stored task immediately if it is enabled.
func (s *Scheduler) runTaskByID(ctx context.Context, id string) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		logger.Warn("scheduler: failed to load task %s: %v", id, err)
		return
	}
	if task == nil || !task.Enabled {
		return
	}
	s.runTask(ctx, task)
}

// runTask executes a single task unless it is already running.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			ID:        uuid.New().String(),
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDWatch:
			result.ItemsProcessed, err = s.runWatch(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		result.Success = err == nil
		if err != nil {
			result.Error = err.Error()
			logger.Errorw("scheduled task failed", "task", task.ID, "error", err)
		} else {
			logger.Debug("task %s dispatched %d partition(s) in %s", task.ID, result.ItemsProcessed, result.Duration())
		}
		task.Complete(result)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		if pruneErr := s.store.PruneHistory(ctx, domain.MaxTaskHistory); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runWatch performs one watch tick and returns the number of partitions dispatched.
func (s *Scheduler) runWatch(ctx context.Context) (int, error) {
	if s.watch == nil {
		return 0, nil
	}
	report, err := s.watch.RunOnce(ctx)
	if report == nil {
		return 0, err
	}
	for _, res := range report.Results {
		if res != nil && len(res.Failed()) > 0 {
			logger.Warn("partition %s: %d stage(s) failed", res.Key, len(res.Failed()))
		}
	}
	return report.Dispatched, err
}

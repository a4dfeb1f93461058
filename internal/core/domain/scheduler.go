package domain

import "time"

// TaskIDWatch identifies the periodic watch tick.
const TaskIDWatch = "watch"

// DefaultWatchInterval is how often the watch task ticks by default.
const DefaultWatchInterval = 5 * time.Second

// MaxTaskHistory is the number of results kept per task.
const MaxTaskHistory = 100

// ScheduledTask is a recurring background task and its run state.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	// LastRun and NextRun are zero until the task first runs.
	// A zero NextRun means the task is due immediately.
	LastRun time.Time
	NextRun time.Time

	// LastError is empty after a successful run.
	LastError   string
	LastSuccess time.Time
}

// Due reports whether an enabled task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && (t.NextRun.IsZero() || !t.NextRun.After(now))
}

// Complete folds a finished run into the task state and schedules the
// next run one interval after it ended.
func (t *ScheduledTask) Complete(result *TaskResult) {
	t.LastRun = result.StartedAt
	t.NextRun = result.EndedAt.Add(t.Interval)
	if result.Success {
		t.LastError = ""
		t.LastSuccess = result.EndedAt
	} else {
		t.LastError = result.Error
	}
}

// TaskResult records one execution of a task.
type TaskResult struct {
	ID        string
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed is the number of execution requests dispatched.
	ItemsProcessed int
}

// Duration returns how long the run took.
func (r *TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration keyed by task ID.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig enables the watch task at DefaultWatchInterval.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDWatch: {Enabled: true, Interval: DefaultWatchInterval},
		},
	}
}

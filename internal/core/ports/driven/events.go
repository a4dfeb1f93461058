package driven

import (
	"context"
	"time"
)

// StageEvent reports the completion or failure of one (key, stage) execution.
type StageEvent struct {
	RunID    string    `json:"run_id"`
	Key      string    `json:"key"`
	Stage    string    `json:"stage"`
	Success  bool      `json:"success"`
	Kind     string    `json:"kind,omitempty"`
	Error    string    `json:"error,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// EventPublisher delivers stage events to an external consumer.
// Publish failures are logged by the caller and never fail a stage.
type EventPublisher interface {
	Publish(ctx context.Context, event StageEvent) error
	Close() error
}

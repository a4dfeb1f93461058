package driving

import "context"

// Scheduler manages background tasks such as the periodic watch tick.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Nudge asks the scheduler to run the watch task now instead of
	// waiting for the next interval. Repeated nudges coalesce.
	Nudge()
}

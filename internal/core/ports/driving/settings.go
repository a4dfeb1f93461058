package driving

import "github.com/custodia-labs/sercha-ingest/internal/core/domain"

// SettingsService resolves engine configuration from the config store.
type SettingsService interface {
	// Engine returns the engine configuration with defaults applied.
	Engine() domain.EngineConfig

	// Scheduler returns the scheduler configuration with defaults applied.
	Scheduler() domain.SchedulerConfig

	// Validate checks that cfg can start an engine.
	Validate(cfg domain.EngineConfig) error

	// Get returns the stored value for a dotted key.
	Get(key string) (any, bool)

	// Set stores one configuration value by dotted key.
	// Returns domain.ErrInvalidInput for unknown keys.
	Set(key string, value any) error

	// Keys lists every recognised configuration key.
	Keys() []string
}

package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySourceBackend    = "source.backend"
	keySourceRoot       = "source.root"
	keySourceKeyPrefix  = "source.key_prefix"
	keySourceBucket     = "source.bucket"
	keySourceEndpoint   = "source.endpoint"
	keySourceRegion     = "source.region"
	keySourceAccessKey  = "source.access_key_id"
	keySourceSecretKey  = "source.secret_access_key"
	keySourceUseSSL     = "source.use_ssl"
	keySourceRPS        = "source.requests_per_second"
	keyChunkSize        = "chunk.size"
	keyWatchID          = "watch.id"
	keyWatchInterval    = "watch.interval"
	keyWatchNotify      = "watch.notify"
	keyWorkersSize      = "workers.size"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedModel       = "embedding.model"
	keyEventsPublisher  = "events.publisher"
	keyEventsBrokers    = "events.brokers"
	keyEventsTopic      = "events.topic"
	keyStoragePath      = "storage.path"
	keySchedulerEnabled = "scheduler.enabled"
	keyWatchTaskEnabled = "scheduler.watch.enabled"
)

var knownKeys = []string{
	keySourceBackend, keySourceRoot, keySourceKeyPrefix, keySourceBucket,
	keySourceEndpoint, keySourceRegion, keySourceAccessKey, keySourceSecretKey,
	keySourceUseSSL, keySourceRPS, keyChunkSize, keyWatchID,
	keyWatchInterval, keyWatchNotify, keyWorkersSize, keyEmbedProvider,
	keyEmbedBaseURL, keyEmbedModel, keyEventsPublisher, keyEventsBrokers,
	keyEventsTopic, keyStoragePath, keySchedulerEnabled, keyWatchTaskEnabled,
}

// SettingsService resolves engine settings from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Engine returns the engine configuration with defaults applied.
func (s *SettingsService) Engine() domain.EngineConfig {
	d := domain.DefaultEngineConfig()

	return domain.EngineConfig{
		Source: domain.SourceConfig{
			Backend:           s.getString(keySourceBackend, d.Source.Backend),
			Root:              s.configStore.GetString(keySourceRoot),
			KeyPrefix:         s.configStore.GetString(keySourceKeyPrefix),
			Bucket:            s.configStore.GetString(keySourceBucket),
			Endpoint:          s.configStore.GetString(keySourceEndpoint),
			Region:            s.getString(keySourceRegion, d.Source.Region),
			AccessKeyID:       s.configStore.GetString(keySourceAccessKey),
			SecretAccessKey:   s.configStore.GetString(keySourceSecretKey),
			UseSSL:            s.getBool(keySourceUseSSL, d.Source.UseSSL),
			RequestsPerSecond: s.configStore.GetFloat(keySourceRPS),
		},
		Chunk: domain.ChunkConfig{
			Size: s.getInt(keyChunkSize, d.Chunk.Size),
		},
		Watch: domain.WatchConfig{
			ID:       s.getString(keyWatchID, d.Watch.ID),
			Interval: s.getDuration(keyWatchInterval, d.Watch.Interval),
			Notify:   s.getBool(keyWatchNotify, d.Watch.Notify),
		},
		Workers: domain.WorkerConfig{
			Size: s.getInt(keyWorkersSize, d.Workers.Size),
		},
		Embedding: domain.EmbeddingConfig{
			Provider: s.getString(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			Model:    s.configStore.GetString(keyEmbedModel),
		},
		Events: domain.EventsConfig{
			Publisher: s.getString(keyEventsPublisher, d.Events.Publisher),
			Brokers:   s.configStore.GetStringSlice(keyEventsBrokers),
			Topic:     s.getString(keyEventsTopic, d.Events.Topic),
		},
		Storage: domain.StorageConfig{
			Path: s.configStore.GetString(keyStoragePath),
		},
	}
}

// Scheduler returns the scheduler configuration.
// The watch task interval follows watch.interval.
func (s *SettingsService) Scheduler() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = s.getBool(keySchedulerEnabled, cfg.Enabled)

	task := cfg.TaskConfigs[domain.TaskIDWatch]
	task.Enabled = s.getBool(keyWatchTaskEnabled, task.Enabled)
	task.Interval = s.getDuration(keyWatchInterval, task.Interval)
	cfg.TaskConfigs[domain.TaskIDWatch] = task

	return cfg
}

// Validate checks that cfg can start an engine.
func (s *SettingsService) Validate(cfg domain.EngineConfig) error {
	switch cfg.Source.Backend {
	case domain.BackendFilesystem:
		if cfg.Source.Root == "" {
			return fmt.Errorf("%w: %s is required for the filesystem backend", domain.ErrInvalidInput, keySourceRoot)
		}
	case domain.BackendS3, domain.BackendMinIO:
		if cfg.Source.Bucket == "" {
			return fmt.Errorf("%w: %s is required for the %s backend", domain.ErrInvalidInput, keySourceBucket, cfg.Source.Backend)
		}
		if cfg.Source.Backend == domain.BackendMinIO && cfg.Source.Endpoint == "" {
			return fmt.Errorf("%w: %s is required for the minio backend", domain.ErrInvalidInput, keySourceEndpoint)
		}
	default:
		return fmt.Errorf("%w: unknown source backend %q", domain.ErrInvalidInput, cfg.Source.Backend)
	}

	if cfg.Source.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, keySourceRPS)
	}
	if cfg.Chunk.Size <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyChunkSize)
	}
	if cfg.Watch.Interval <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyWatchInterval)
	}
	if cfg.Workers.Size <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyWorkersSize)
	}

	switch cfg.Embedding.Provider {
	case domain.EmbeddingHash:
	case domain.EmbeddingOllama:
		if cfg.Embedding.Model == "" {
			return fmt.Errorf("%w: %s is required for ollama", domain.ErrInvalidInput, keyEmbedModel)
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, cfg.Embedding.Provider)
	}

	switch cfg.Events.Publisher {
	case domain.EventsNone:
	case domain.EventsKafka:
		if len(cfg.Events.Brokers) == 0 {
			return fmt.Errorf("%w: %s is required for kafka", domain.ErrInvalidInput, keyEventsBrokers)
		}
	default:
		return fmt.Errorf("%w: unknown events publisher %q", domain.ErrInvalidInput, cfg.Events.Publisher)
	}

	return nil
}

// Get returns the raw stored value for key.
func (s *SettingsService) Get(key string) (any, bool) {
	return s.configStore.Get(key)
}

// Set stores one recognised configuration value.
func (s *SettingsService) Set(key string, value any) error {
	keys := s.Keys()
	i := sort.SearchStrings(keys, key)
	if i >= len(keys) || keys[i] != key {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := append([]string(nil), knownKeys...)
	sort.Strings(keys)
	return keys
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

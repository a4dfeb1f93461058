package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/events/kafka"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/events/noop"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/source/filesystem"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/source/minio"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/source/s3"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-ingest/internal/converters"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/services"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
	"github.com/custodia-labs/sercha-ingest/internal/stages"
)

// newContainer wires every service for one CLI invocation. When the
// configuration cannot start an engine, only settings are returned so
// the user can fix it.
func newContainer(ctx context.Context, opts cli.Options) (*cli.Services, func() error, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	settings := services.NewSettingsService(configStore)
	cfg := settings.Engine()

	svc := &cli.Services{Settings: settings}
	if err := settings.Validate(cfg); err != nil {
		logger.Debug("engine unavailable: %v", err)
		svc.EngineErr = err
		return svc, nil, nil
	}

	logger.Section("Engine")
	logger.Debug("source: %s %s%s", cfg.Source.Backend, cfg.Source.Bucket, cfg.Source.Root)
	logger.Debug("embedding: %s, events: %s, workers: %d", cfg.Embedding.Provider, cfg.Events.Publisher, cfg.Workers.Size)

	var closers []func() error
	release := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	store, err := sqlite.NewStore(storagePath(cfg.Storage, opts.DataDir))
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, store.Close)

	source, err := newSource(ctx, cfg.Source)
	if err != nil {
		_ = release()
		return nil, nil, err
	}

	embedder := newEmbedder(cfg.Embedding)
	closers = append(closers, embedder.Close)
	if p, ok := embedder.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			logger.Warn("embedding provider unreachable, embed stages will fail: %v", err)
		}
	}

	publisher, err := newPublisher(cfg.Events)
	if err != nil {
		_ = release()
		return nil, nil, err
	}
	closers = append(closers, publisher.Close)

	executor := services.NewStageExecutor(
		store.RecordStore(),
		source,
		converters.NewDefaultRegistry(),
		embedder,
		services.WithEventPublisher(publisher),
		services.WithChunker(stages.NewChunker(stages.WithChunkSize(cfg.Chunk.Size))),
	)

	pool, err := services.NewWorkerPool(executor, cfg.Workers.Size)
	if err != nil {
		_ = release()
		return nil, nil, err
	}
	closers = append(closers, func() error {
		pool.Release()
		return nil
	})

	engine := services.NewEngine(
		services.NewWatcher(source, cfg.Source.KeyPrefix),
		services.NewPartitionRegistry(store.PartitionStore()),
	)
	watch := services.NewWatchService(cfg.Watch.ID, engine, pool, store.CursorStore())

	svc.Watch = watch
	svc.Runner = executor
	svc.Scheduler = services.NewScheduler(settings.Scheduler(), store.SchedulerStore(), watch)
	svc.Records = store.RecordStore()
	svc.Partitions = store.PartitionStore()
	svc.Relationships = store.RelationshipStore()

	if cfg.Watch.Notify && cfg.Source.Backend == domain.BackendFilesystem {
		notifier, err := filesystem.NewNotifier(cfg.Source.Root)
		if err != nil {
			logger.Warn("change notifications disabled: %v", err)
		} else {
			svc.Notifier = notifier
			closers = append(closers, notifier.Close)
		}
	}

	return svc, release, nil
}

// pinger is implemented by embedders backed by a remote service.
type pinger interface {
	Ping(ctx context.Context) error
}

// storagePath resolves the database file. An explicit storage.path wins
// over --data-dir; both empty selects the store's default location.
func storagePath(cfg domain.StorageConfig, dataDir string) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	if dataDir != "" {
		return filepath.Join(dataDir, sqlite.DefaultFileName)
	}
	return ""
}

func newSource(ctx context.Context, cfg domain.SourceConfig) (driven.ObjectSource, error) {
	switch cfg.Backend {
	case domain.BackendFilesystem:
		return filesystem.New(cfg.Root), nil
	case domain.BackendS3:
		client, err := s3.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s3.New(client, cfg.Bucket, cfg.Root, s3.WithRateLimit(cfg.RequestsPerSecond)), nil
	case domain.BackendMinIO:
		client, err := minio.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return minio.New(client, cfg.Bucket, cfg.Root, minio.WithRateLimit(cfg.RequestsPerSecond)), nil
	default:
		return nil, fmt.Errorf("%w: unknown source backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

func newEmbedder(cfg domain.EmbeddingConfig) driven.EmbeddingService {
	if cfg.Provider == domain.EmbeddingOllama {
		return ollama.NewEmbeddingService(cfg)
	}
	return hash.NewEmbeddingService()
}

func newPublisher(cfg domain.EventsConfig) (driven.EventPublisher, error) {
	if cfg.Publisher != domain.EventsKafka {
		return noop.NewPublisher(), nil
	}
	w, err := kafka.NewWriter(cfg)
	if err != nil {
		return nil, err
	}
	return kafka.NewPublisher(w), nil
}

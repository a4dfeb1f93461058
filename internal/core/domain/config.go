package domain

import (
	"runtime"
	"time"
)

// Source backend identifiers.
const (
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
	BackendMinIO      = "minio"
)

// Embedding provider identifiers.
const (
	EmbeddingHash   = "hash"
	EmbeddingOllama = "ollama"
)

// Event publisher identifiers.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
)

// DefaultChunkSize is the default chunk window in text units (runes).
const DefaultChunkSize = 32

// EngineConfig is the resolved engine configuration.
type EngineConfig struct {
	Source    SourceConfig
	Chunk     ChunkConfig
	Watch     WatchConfig
	Workers   WorkerConfig
	Embedding EmbeddingConfig
	Events    EventsConfig
	Storage   StorageConfig
}

// SourceConfig selects and configures the watched source.
type SourceConfig struct {
	// Backend is one of BackendFilesystem, BackendS3, BackendMinIO.
	Backend string

	// Root is the directory (filesystem) or key prefix (object stores).
	Root string

	// KeyPrefix is prepended to every derived partition key.
	KeyPrefix string

	// Bucket names the object-store bucket.
	Bucket string

	// Endpoint overrides the object-store endpoint (e.g. localstack).
	Endpoint string

	// Region is the S3 region.
	Region string

	// AccessKeyID and SecretAccessKey are static object-store credentials.
	AccessKeyID     string
	SecretAccessKey string

	// UseSSL enables TLS for MinIO.
	UseSSL bool

	// RequestsPerSecond throttles object-store calls. Zero disables throttling.
	RequestsPerSecond float64
}

// ChunkConfig configures the chunk stage.
type ChunkConfig struct {
	// Size is the window length in runes.
	Size int
}

// WatchConfig configures the watcher.
type WatchConfig struct {
	// ID identifies the persisted cursor for this root.
	ID string

	// Interval is the tick interval.
	Interval time.Duration

	// Notify enables filesystem change notifications between ticks.
	Notify bool
}

// WorkerConfig sizes the execution pool.
type WorkerConfig struct {
	Size int
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string
	BaseURL  string
	Model    string
}

// EventsConfig selects the stage event publisher.
type EventsConfig struct {
	Publisher string
	Brokers   []string
	Topic     string
}

// StorageConfig locates the record database.
type StorageConfig struct {
	// Path is the SQLite file. Empty means the default data directory.
	Path string
}

// DefaultEngineConfig returns the defaults used when a key is not configured.
func DefaultEngineConfig() EngineConfig {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return EngineConfig{
		Source: SourceConfig{
			Backend: BackendFilesystem,
			Region:  "us-east-1",
		},
		Chunk: ChunkConfig{Size: DefaultChunkSize},
		Watch: WatchConfig{
			ID:       "default",
			Interval: DefaultWatchInterval,
		},
		Workers:   WorkerConfig{Size: workers},
		Embedding: EmbeddingConfig{Provider: EmbeddingHash},
		Events: EventsConfig{
			Publisher: EventsNone,
			Topic:     "sercha-ingest.stages",
		},
	}
}

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/events/kafka"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/events/noop"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/source/filesystem"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/source/minio"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestStoragePath(t *testing.T) {
	assert.Equal(t, "/x/db.sqlite", storagePath(domain.StorageConfig{Path: "/x/db.sqlite"}, "/data"))
	assert.Equal(t, filepath.Join("/data", sqlite.DefaultFileName), storagePath(domain.StorageConfig{}, "/data"))
	assert.Equal(t, "", storagePath(domain.StorageConfig{}, ""))
}

func TestNewSource(t *testing.T) {
	t.Run("filesystem", func(t *testing.T) {
		src, err := newSource(context.Background(), domain.SourceConfig{Backend: domain.BackendFilesystem, Root: "/data"})
		require.NoError(t, err)
		assert.IsType(t, &filesystem.Source{}, src)
	})

	t.Run("minio", func(t *testing.T) {
		src, err := newSource(context.Background(), domain.SourceConfig{
			Backend:  domain.BackendMinIO,
			Bucket:   "b",
			Endpoint: "localhost:9000",
		})
		require.NoError(t, err)
		assert.IsType(t, &minio.Source{}, src)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := newSource(context.Background(), domain.SourceConfig{Backend: "ftp"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestNewEmbedder(t *testing.T) {
	assert.IsType(t, &hash.EmbeddingService{}, newEmbedder(domain.EmbeddingConfig{Provider: domain.EmbeddingHash}))
	assert.IsType(t, &ollama.EmbeddingService{}, newEmbedder(domain.EmbeddingConfig{Provider: domain.EmbeddingOllama}))
}

func TestNewPublisher(t *testing.T) {
	p, err := newPublisher(domain.EventsConfig{Publisher: domain.EventsNone})
	require.NoError(t, err)
	assert.IsType(t, &noop.Publisher{}, p)

	p, err = newPublisher(domain.EventsConfig{Publisher: domain.EventsKafka, Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.IsType(t, &kafka.Publisher{}, p)
	assert.NoError(t, p.Close())

	_, err = newPublisher(domain.EventsConfig{Publisher: domain.EventsKafka})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewContainer_InvalidConfigKeepsSettings(t *testing.T) {
	svc, release, err := newContainer(context.Background(), cli.Options{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, release)
	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Watch)
	assert.ErrorIs(t, svc.EngineErr, domain.ErrInvalidInput)
}

func TestNewContainer_Filesystem(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("Hello World!"), 0o600))

	config := "[source]\nroot = \"" + filepath.ToSlash(root) + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o600))

	svc, release, err := newContainer(context.Background(), cli.Options{ConfigDir: configDir, DataDir: dataDir})
	require.NoError(t, err)
	require.NotNil(t, release)
	defer func() { assert.NoError(t, release()) }()

	require.NoError(t, svc.EngineErr)
	report, err := svc.Watch.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dispatched)

	rec, err := svc.Records.Get(context.Background(), "/hello.txt")
	require.NoError(t, err)
	require.NotNil(t, rec.Embeddings)

	assert.FileExists(t, filepath.Join(dataDir, sqlite.DefaultFileName))
}

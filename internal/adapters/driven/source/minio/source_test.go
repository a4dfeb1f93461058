package minio

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// fakeClient serves a fixed listing.
type fakeClient struct {
	objects []minio.ObjectInfo
	getErr  error
	prefix  string
}

func (f *fakeClient) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	f.prefix = opts.Prefix
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for _, obj := range f.objects {
		ch <- obj
	}
	close(ch)
	return ch
}

func (f *fakeClient) GetObject(_ context.Context, _, _ string, _ minio.GetObjectOptions) (*minio.Object, error) {
	return nil, f.getErr
}

func TestSource_List(t *testing.T) {
	modified := time.Unix(1700000000, 0)
	client := &fakeClient{objects: []minio.ObjectInfo{
		{Key: "ingest/hello.txt", LastModified: modified},
		{Key: "ingest/docs/", LastModified: modified},
		{Key: "ingest/docs/guide.md", LastModified: modified.Add(2 * time.Second)},
	}}
	src := New(client, "test_bucket", "ingest")

	objects, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ingest/", client.prefix)
	require.Len(t, objects, 2)
	assert.Equal(t, "minio://test_bucket/ingest/hello.txt", objects[0].Locator)
	assert.Equal(t, "hello.txt", objects[0].RelPath)
	assert.Equal(t, float64(1700000000), objects[0].ModTime)
	assert.Equal(t, "docs/guide.md", objects[1].RelPath)
}

func TestSource_List_Error(t *testing.T) {
	client := &fakeClient{objects: []minio.ObjectInfo{
		{Err: errors.New("access denied")},
	}}
	_, err := New(client, "b", "").List(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestSource_Read_Errors(t *testing.T) {
	client := &fakeClient{getErr: minio.ErrorResponse{Code: "NoSuchKey"}}
	src := New(client, "test_bucket", "")

	_, err := src.Read(context.Background(), "minio://test_bucket/gone.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = src.Read(context.Background(), "minio://other/a.txt")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	client.getErr = errors.New("timeout")
	_, err = src.Read(context.Background(), "minio://test_bucket/a.txt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(domain.SourceConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestSource_Integration requires a running MinIO instance at
// MINIO_ENDPOINT (default localhost:9000). Skipped when unreachable.
func TestSource_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "sercha-ingest-test"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	body := "Hello World!"
	_, err = client.PutObject(ctx, bucket, "it/hello.txt", strings.NewReader(body), int64(len(body)), minio.PutObjectOptions{})
	require.NoError(t, err)

	src := New(client, bucket, "it")
	objects, err := src.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, objects)

	data, err := src.Read(ctx, Scheme+bucket+"/it/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	_, err = src.Read(ctx, Scheme+bucket+"/it/missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

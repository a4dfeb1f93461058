// Package minio provides an ObjectSource over a MinIO (or any
// S3-compatible) bucket prefix using minio-go.
package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ObjectSource = (*Source)(nil)

// Scheme prefixes every locator produced by this source.
const Scheme = "minio://"

// Client is the subset of the minio-go API the source uses.
type Client interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// Source lists and reads objects under bucket/prefix.
type Source struct {
	client  Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// Option configures a Source.
type Option func(*Source)

// WithRateLimit throttles API calls to rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(s *Source) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates a source over bucket/prefix.
func New(client Client, bucket, prefix string, opts ...Option) *Source {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	s := &Source{client: client, bucket: bucket, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient connects to the endpoint in cfg with static credentials.
func NewClient(cfg domain.SourceConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: minio backend requires source.endpoint", domain.ErrInvalidInput)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return client, nil
}

// Type returns the backend identifier.
func (s *Source) Type() string {
	return domain.BackendMinIO
}

// List returns every object under the prefix.
func (s *Source) List(ctx context.Context) ([]domain.ObjectInfo, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	// Cancelling stops the listing goroutine if we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []domain.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			if isNotFound(obj.Err) {
				continue
			}
			return nil, fmt.Errorf("listing %s%s/%s: %w", Scheme, s.bucket, s.prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if rel == "" {
			continue
		}
		objects = append(objects, domain.ObjectInfo{
			Locator: Scheme + s.bucket + "/" + obj.Key,
			RelPath: rel,
			ModTime: domain.EpochSeconds(obj.LastModified),
		})
	}
	return objects, nil
}

// Read fetches the object named by a minio:// locator.
func (s *Source) Read(ctx context.Context, locator string) ([]byte, error) {
	rest, ok := strings.CutPrefix(locator, Scheme+s.bucket+"/")
	if !ok || rest == "" {
		return nil, fmt.Errorf("%w: %s is not in bucket %s", domain.ErrInvalidInput, locator, s.bucket)
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, rest, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(locator, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(locator, err)
	}
	return data, nil
}

func (s *Source) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func mapError(locator string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, locator)
	}
	return fmt.Errorf("reading %s: %w", locator, err)
}

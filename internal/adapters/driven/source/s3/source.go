// Package s3 provides an ObjectSource over an S3 bucket prefix.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ObjectSource = (*Source)(nil)

// Scheme prefixes every locator produced by this source.
const Scheme = "s3://"

// Client is the subset of the S3 API the source uses.
type Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
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
// Zero or negative disables throttling.
func WithRateLimit(rps float64) Option {
	return func(s *Source) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates a source over bucket. prefix selects the watched root
// inside the bucket; an empty prefix watches the whole bucket.
func New(client Client, bucket, prefix string, opts ...Option) *Source {
	s := &Source{
		client: client,
		bucket: bucket,
		prefix: normalisePrefix(prefix),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient builds an S3 client from the source configuration. Static
// credentials are used when both keys are set, otherwise the default
// AWS credential chain applies. A custom endpoint switches to path-style
// addressing, as S3-compatible emulators expect.
func NewClient(ctx context.Context, cfg domain.SourceConfig) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Type returns the backend identifier.
func (s *Source) Type() string {
	return domain.BackendS3
}

// List pages through every object under the prefix. Directory marker
// objects (keys ending in "/") are skipped.
func (s *Source) List(ctx context.Context) ([]domain.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var objects []domain.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
			if rel == "" {
				continue
			}
			var mtime float64
			if obj.LastModified != nil {
				mtime = domain.EpochSeconds(*obj.LastModified)
			}
			objects = append(objects, domain.ObjectInfo{
				Locator: s.locator(key),
				RelPath: rel,
				ModTime: mtime,
			})
		}
	}
	return objects, nil
}

// Read fetches the object named by an s3:// locator.
func (s *Source) Read(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, fmt.Errorf("%w: %s is not in bucket %s", domain.ErrInvalidInput, locator, s.bucket)
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, locator)
		}
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	return data, nil
}

func (s *Source) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *Source) locator(key string) string {
	return Scheme + s.bucket + "/" + key
}

// ParseLocator splits an s3://bucket/key locator.
func ParseLocator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3 locator", domain.ErrInvalidInput, locator)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q has no object key", domain.ErrInvalidInput, locator)
	}
	return bucket, key, nil
}

// normalisePrefix makes a non-empty prefix end in exactly one slash so
// "docs" never matches "docs-archive/...".
func normalisePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

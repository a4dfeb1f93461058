package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// MockS3Client is a testify mock of the S3 API subset.
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

var _ Client = (*MockS3Client)(nil)

func TestSource_Type(t *testing.T) {
	assert.Equal(t, domain.BackendS3, New(new(MockS3Client), "b", "").Type())
}

func TestSource_List(t *testing.T) {
	mockClient := new(MockS3Client)
	src := New(mockClient, "test_bucket", "/ingest/")

	modified := time.Unix(1700000000, 0).UTC()
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Bucket == "test_bucket" && *input.Prefix == "ingest/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("ingest/hello.txt"), LastModified: aws.Time(modified)},
			{Key: aws.String("ingest/docs/"), LastModified: aws.Time(modified)},
			{Key: aws.String("ingest/docs/guide.md"), LastModified: aws.Time(modified.Add(time.Second))},
		},
	}, nil).Once()

	objects, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "s3://test_bucket/ingest/hello.txt", objects[0].Locator)
	assert.Equal(t, "hello.txt", objects[0].RelPath)
	assert.Equal(t, float64(1700000000), objects[0].ModTime)
	assert.Equal(t, "docs/guide.md", objects[1].RelPath)
	assert.Equal(t, float64(1700000001), objects[1].ModTime)
	mockClient.AssertExpectations(t)
}

func TestSource_List_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	src := New(mockClient, "test_bucket", "")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil && input.Prefix == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("a.md")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("b.md")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	objects, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a.md", objects[0].RelPath)
	assert.Equal(t, "b.md", objects[1].RelPath)
	mockClient.AssertExpectations(t)
}

func TestSource_List_Error(t *testing.T) {
	mockClient := new(MockS3Client)
	src := New(mockClient, "test_bucket", "")

	mockClient.On("ListObjectsV2", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()

	_, err := src.List(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestSource_Read(t *testing.T) {
	mockClient := new(MockS3Client)
	src := New(mockClient, "test_bucket", "ingest")

	t.Run("success", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Bucket == "test_bucket" && *input.Key == "ingest/hello.txt"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("Hello World!")),
		}, nil).Once()

		data, err := src.Read(context.Background(), "s3://test_bucket/ingest/hello.txt")
		require.NoError(t, err)
		assert.Equal(t, "Hello World!", string(data))
	})

	t.Run("missing key", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Key == "ingest/gone.txt"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := src.Read(context.Background(), "s3://test_bucket/ingest/gone.txt")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("other bucket", func(t *testing.T) {
		_, err := src.Read(context.Background(), "s3://elsewhere/ingest/a.txt")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	mockClient.AssertExpectations(t)
}

func TestSource_RateLimit(t *testing.T) {
	mockClient := new(MockS3Client)
	src := New(mockClient, "test_bucket", "", WithRateLimit(1))
	require.NotNil(t, src.limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Read(ctx, "s3://test_bucket/a.txt")
	assert.Error(t, err)
	mockClient.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)

	assert.Nil(t, New(mockClient, "b", "", WithRateLimit(0)).limiter)
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		locator string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://bucket/a/b.md", "bucket", "a/b.md", false},
		{"s3://bucket/", "", "", true},
		{"s3://bucket", "", "", true},
		{"/local/path.md", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			bucket, key, err := ParseLocator(tt.locator)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestNormalisePrefix(t *testing.T) {
	assert.Equal(t, "", normalisePrefix(""))
	assert.Equal(t, "", normalisePrefix("/"))
	assert.Equal(t, "docs/", normalisePrefix("docs"))
	assert.Equal(t, "a/b/", normalisePrefix("/a/b/"))
}

package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMinioClient is a mock implementation of the Minio client
type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func (m *MockMinioClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func objectChan(objects ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objects))
	for _, o := range objects {
		ch <- o
	}
	close(ch)
	return ch
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Endpoint: "localhost:9000", Bucket: "photos"}
	assert.NoError(t, cfg.Validate(), "anonymous access is allowed")

	cfg.AccessKey = "key"
	assert.Error(t, cfg.Validate(), "secret key missing")

	cfg.SecretKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Endpoint = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateBucketName(t *testing.T) {
	valid := []string{"photos", "my-bucket-01", "a.b.c"}
	for _, name := range valid {
		assert.NoError(t, ValidateBucketName(name), name)
	}

	invalid := []string{"", "ab", "UpperCase", "-leading", "trailing-", "two..dots", "192.168.1.10", "under_score"}
	for _, name := range invalid {
		err := ValidateBucketName(name)
		assert.ErrorIs(t, err, ErrInvalidBucketName, name)
	}

	assert.True(t, isDNSCompatible("photos"))
	assert.False(t, isDNSCompatible("a.b.c"))
}

func TestNewClientBucketMissing(t *testing.T) {
	m := &MockMinioClient{}
	m.On("BucketExists", mock.Anything, "photos").Return(false, nil)

	_, err := newClient(context.Background(), m, Config{Bucket: "photos"})
	assert.ErrorIs(t, err, ErrBucketNotFound)
	assert.True(t, IsNotFoundError(err))
	m.AssertExpectations(t)
}

func TestListObjects(t *testing.T) {
	m := &MockMinioClient{}
	m.On("BucketExists", mock.Anything, "photos").Return(true, nil)
	m.On("ListObjects", mock.Anything, "photos", minio.ListObjectsOptions{Prefix: "albums/2024/", Recursive: true}).
		Return(objectChan(
			minio.ObjectInfo{Key: "albums/2024/"},
			minio.ObjectInfo{Key: "albums/2024/a.jpg", Size: 10},
			minio.ObjectInfo{Key: "albums/2024/b.png", Size: 20},
		))

	c, err := newClient(context.Background(), m, Config{Bucket: "photos", Prefix: "albums"})
	require.NoError(t, err)

	objects, err := c.ListObjects(context.Background(), "2024/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "albums/2024/a.jpg", objects[0].Key)
	assert.Equal(t, "albums/2024/b.png", objects[1].Key)
	m.AssertExpectations(t)
}

func TestListObjectsError(t *testing.T) {
	m := &MockMinioClient{}
	m.On("ListObjects", mock.Anything, "photos", mock.Anything).
		Return(objectChan(minio.ObjectInfo{Err: errors.New("boom")}))

	c := &Client{client: m, config: Config{Bucket: "photos"}}
	_, err := c.ListObjects(context.Background(), "")
	assert.ErrorContains(t, err, "error listing objects")
}

func TestReadObject(t *testing.T) {
	m := &MockMinioClient{}
	m.On("GetObject", mock.Anything, "photos", "a.jpg", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte("0123456789"))), nil)
	m.On("GetObject", mock.Anything, "photos", "missing.jpg", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."})

	c := &Client{client: m, config: Config{Bucket: "photos"}}

	data, err := c.ReadObject(context.Background(), "a.jpg", 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	_, err = c.ReadObject(context.Background(), "a.jpg", 4)
	assert.ErrorIs(t, err, ErrObjectTooLarge)
	assert.True(t, IsPermanent(err))

	_, err = c.ReadObject(context.Background(), "missing.jpg", 0)
	require.Error(t, err)
	assert.Equal(t, "NoSuchKey", ErrorCode(err))
	assert.True(t, IsNotFoundError(err))
}

func TestErrorClassifiers(t *testing.T) {
	denied := fmt.Errorf("wrapped: %w", minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."})
	assert.True(t, IsAuthError(denied))
	assert.False(t, IsNotFoundError(denied))
	assert.Equal(t, "S3 error: Access Denied. (code: AccessDenied)", FormatError(denied))

	assert.False(t, IsPermanent(errors.New("connection reset by peer")))
	assert.Equal(t, "", FormatError(nil))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestParseURL(t *testing.T) {
	bucket, prefix, ok := ParseURL("s3://photos/albums/2024")
	assert.True(t, ok)
	assert.Equal(t, "photos", bucket)
	assert.Equal(t, "albums/2024", prefix)

	bucket, prefix, ok = ParseURL("s3://photos")
	assert.True(t, ok)
	assert.Equal(t, "photos", bucket)
	assert.Empty(t, prefix)

	_, _, ok = ParseURL("/local/dir")
	assert.False(t, ok)
	_, _, ok = ParseURL("s3:///prefix")
	assert.False(t, ok)
}

func TestIntegrationListAndRead(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	// docker run -p 9000:9000 minio/minio server /data
	cfg := Config{
		Endpoint:  getEnvOrDefault("TEST_S3_ENDPOINT", "localhost:9000"),
		Region:    getEnvOrDefault("TEST_S3_REGION", "us-east-1"),
		Bucket:    getEnvOrDefault("TEST_S3_BUCKET", "test-bucket"),
		AccessKey: getEnvOrDefault("TEST_S3_ACCESS_KEY", "minioadmin"),
		SecretKey: getEnvOrDefault("TEST_S3_SECRET_KEY", "minioadmin"),
		UseSSL:    os.Getenv("TEST_S3_USE_SSL") == "true",
	}
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)

	objects, err := c.ListObjects(context.Background(), "")
	require.NoError(t, err)
	if len(objects) == 0 {
		t.Skip("bucket is empty")
	}
	data, err := c.ReadObject(context.Background(), objects[0].Key, 64<<20)
	require.NoError(t, err)
	assert.Len(t, data, int(objects[0].Size))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

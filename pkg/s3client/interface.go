package s3client

import (
	"context"

	"github.com/minio/minio-go/v7"
)

// ObjectStore is the read-only view of a bucket the scanner needs
type ObjectStore interface {
	ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error)
	ReadObject(ctx context.Context, objectKey string, limit int64) ([]byte, error)
	GetBucketName() string
}

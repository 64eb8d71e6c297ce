package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	apperrors "go-imaging-assistant/internal/errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectPutter is the subset of *minio.Client the archive needs
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// minioArchive stores uploads in an S3-compatible bucket. It is safe for
// concurrent use by multiple goroutines.
type minioArchive struct {
	client objectPutter
	bucket string
}

// NewMinIOArchive creates the client and ensures the bucket exists (creates it if missing)
func NewMinIOArchive(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (Archive, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return newMinIOArchive(cli, bucket), nil
}

func newMinIOArchive(client objectPutter, bucket string) *minioArchive {
	return &minioArchive{client: client, bucket: bucket}
}

// Store uploads the raw image, then the report
func (m *minioArchive) Store(ctx context.Context, upload ArchivedUpload) error {
	if err := upload.validate(); err != nil {
		return apperrors.NewStorageError("invalid archive entry", err)
	}

	metadata := upload.metadata()

	if err := m.put(ctx, upload.UploadKey(), upload.Data, upload.ContentType, metadata); err != nil {
		return apperrors.NewStorageError("failed to archive upload", err)
	}
	if len(upload.Report) > 0 {
		if err := m.put(ctx, upload.ReportKey(), upload.Report, reportContentType, metadata); err != nil {
			return apperrors.NewStorageError("failed to archive report", err)
		}
	}
	return nil
}

func (m *minioArchive) put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	return err
}

func (m *minioArchive) Name() string {
	return "minio"
}

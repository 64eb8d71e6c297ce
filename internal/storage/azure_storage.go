package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "go-imaging-assistant/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// blobUploader is the subset of *azblob.Client the archive needs
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

type azureArchive struct {
	client    blobUploader
	container string
}

// NewAzureArchive connects with a shared key and makes sure the container exists
func NewAzureArchive(ctx context.Context, accountName, accountKey, container string) (Archive, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("create container %s: %w", container, err)
	}

	return newAzureArchive(client, container), nil
}

func newAzureArchive(client blobUploader, container string) *azureArchive {
	return &azureArchive{client: client, container: container}
}

// Store uploads the raw image, then the report
func (s *azureArchive) Store(ctx context.Context, upload ArchivedUpload) error {
	if err := upload.validate(); err != nil {
		return apperrors.NewStorageError("invalid archive entry", err)
	}

	metadata := toAzureMetadata(upload.metadata())

	if err := s.put(ctx, upload.UploadKey(), upload.Data, upload.ContentType, metadata); err != nil {
		return apperrors.NewStorageError("failed to archive upload", err)
	}
	if len(upload.Report) > 0 {
		if err := s.put(ctx, upload.ReportKey(), upload.Report, reportContentType, metadata); err != nil {
			return apperrors.NewStorageError("failed to archive report", err)
		}
	}
	return nil
}

func (s *azureArchive) put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]*string) error {
	_, err := s.client.UploadBuffer(ctx, s.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		Metadata:    metadata,
	})
	return err
}

func (s *azureArchive) Name() string {
	return "azure"
}

func toAzureMetadata(in map[string]string) map[string]*string {
	out := make(map[string]*string, len(in))
	for k, v := range in {
		v := v // per-iteration copy; module targets go1.21 loop semantics
		out[k] = &v
	}
	return out
}

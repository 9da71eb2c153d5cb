package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

const (
	azureBlockSize   = 4 * 1024 * 1024
	azureConcurrency = 20
)

// AzureStore is a Store backed by an Azure Storage account.
type AzureStore struct {
	client *azblob.Client
}

// NewAzureStore creates an AzureStore from an account connection string.
func NewAzureStore(connectionString string) (*AzureStore, error) {
	if strings.TrimSpace(connectionString) == "" {
		return nil, errors.New("storage connection string is required")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &AzureStore{client: client}, nil
}

// Upload writes data as a block blob, replacing any existing blob.
func (s *AzureStore) Upload(ctx context.Context, container, blob string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, container, blob, data, &azblob.UploadBufferOptions{
		BlockSize:   azureBlockSize,
		Concurrency: azureConcurrency,
	})
	if err != nil {
		return azurePublishError(container, blob, err)
	}
	return nil
}

// Download reads a whole blob.
func (s *AzureStore) Download(ctx context.Context, container, blob string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("download %s/%s: %w", container, blob, domain.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("download %s/%s: %w", container, blob, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", container, blob, err)
	}
	return data, nil
}

func azurePublishError(container, blob string, err error) *domain.PublishError {
	publishErr := &domain.PublishError{Container: container, Blob: blob, Err: err}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		publishErr.StatusCode = respErr.StatusCode
		publishErr.ErrorCode = respErr.ErrorCode
		if respErr.RawResponse != nil {
			publishErr.RequestID = respErr.RawResponse.Header.Get("x-ms-request-id")
		}
	}
	return publishErr
}

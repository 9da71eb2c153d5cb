// Package storage provides the blob stores the CSV records are published to.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

const (
	BackendAzure = "azure"
	BackendS3    = "s3"
)

// Store uploads and downloads whole blobs addressed by container and name.
type Store interface {
	Upload(ctx context.Context, container, blob string, data []byte) error
	Download(ctx context.Context, container, blob string) ([]byte, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend          string
	ConnectionString string
	S3               S3Config
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendAzure:
		return NewAzureStore(cfg.ConnectionString)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// Unavailable stands in for a store that could not be opened. Every call
// fails with the original cause so the publish step reports it.
type Unavailable struct {
	Err error
}

func (u Unavailable) Upload(_ context.Context, container, blob string, _ []byte) error {
	return &domain.PublishError{Container: container, Blob: blob, Err: u.Err}
}

func (u Unavailable) Download(_ context.Context, container, blob string) ([]byte, error) {
	return nil, fmt.Errorf("download %s/%s: %w", container, blob, u.Err)
}

package storage

import (
	"bytes"
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
	"github.com/aws/smithy-go"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

// S3Config configures the S3 backend. Containers map to buckets.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Store is a Store backed by an S3-compatible object store.
type S3Store struct {
	client *s3.Client
}

// NewS3Store creates an S3Store. Without static keys the default AWS
// credential chain is used.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if cfg.Endpoint != "" {
			options.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		options.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Store{client: client}, nil
}

// Upload puts data as an object, replacing any existing one.
func (s *S3Store) Upload(ctx context.Context, container, blob string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(container),
		Key:         aws.String(blob),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return s3PublishError(container, blob, err)
	}
	return nil
}

// Download reads a whole object.
func (s *S3Store) Download(ctx context.Context, container, blob string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(blob),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var noSuchBucket *types.NoSuchBucket
		if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
			return nil, fmt.Errorf("download %s/%s: %w", container, blob, domain.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("download %s/%s: %w", container, blob, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", container, blob, err)
	}
	return data, nil
}

// s3ResponseError is satisfied by the SDK's HTTP response errors.
type s3ResponseError interface {
	HTTPStatusCode() int
	ServiceRequestID() string
}

func s3PublishError(container, blob string, err error) *domain.PublishError {
	publishErr := &domain.PublishError{Container: container, Blob: blob, Err: err}
	var respErr s3ResponseError
	if errors.As(err, &respErr) {
		publishErr.StatusCode = respErr.HTTPStatusCode()
		publishErr.RequestID = respErr.ServiceRequestID()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		publishErr.ErrorCode = apiErr.ErrorCode()
	}
	return publishErr
}

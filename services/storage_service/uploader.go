package storage_service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader stores an original uploaded blob and returns its public URL,
// which becomes the document's source_url.
type Uploader interface {
	Upload(ctx context.Context, filename string, content []byte, contentType string) (string, error)
}

// S3Uploader writes blobs to an S3-compatible bucket. Object keys are
// uniquified so re-uploading the same filename never overwrites.
type S3Uploader struct {
	client *s3.Client
	bucket string
	region string
	logger *slog.Logger
}

func NewS3Uploader(ctx context.Context, bucket, region string, logger *slog.Logger) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage configuration: %w", err)
	}

	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, filename string, content []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s_%s", uuid.New().String(), filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to storage: %w", err)
	}

	u.logger.Info("Uploaded file to storage",
		slog.String("bucket", u.bucket),
		slog.String("key", key),
		slog.Int("size", len(content)))

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, url.PathEscape(key)), nil
}

// Package storage archives rendered documents in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"pos-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of the S3 client the archive needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client PutObjectAPI
	bucket string
}

func NewS3Archive(client PutObjectAPI, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

// NewS3ArchiveFromConfig builds the client from the storage section.
func NewS3ArchiveFromConfig(ctx context.Context, cfg config.StorageConfig) (*S3Archive, error) {
	client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewS3Archive(client, cfg.Bucket), nil
}

func (a *S3Archive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}

// Package storage handles event images in S3-compatible object storage.
// Clients upload directly through presigned URLs; the API only ever hands out
// opaque storage ids.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // set for MinIO or other S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

type S3Client struct {
	presign *s3.PresignClient
	client  *s3.Client
	bucket  string
	ttl     time.Duration
}

func NewS3Client(cfg Config) *S3Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	client := s3.New(opts)

	return &S3Client{
		presign: s3.NewPresignClient(client),
		client:  client,
		bucket:  cfg.Bucket,
		ttl:     cfg.PresignTTL,
	}
}

// CreateUploadURL mints a fresh storage id and a presigned PUT the client can
// upload the image to
func (c *S3Client) CreateUploadURL(ctx context.Context) (string, string, error) {
	storageID := uuid.New().String()

	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(storageID),
	}, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return storageID, req.URL, nil
}

// GetURL resolves a storage id to a presigned GET URL
func (c *S3Client) GetURL(ctx context.Context, storageID string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(storageID),
	}, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}

	return req.URL, nil
}

// Delete removes the stored object; deleting a missing key is not an error
func (c *S3Client) Delete(ctx context.Context, storageID string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(storageID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Package blobstore hands out presigned S3 URLs so media payloads move
// directly between the client and object storage, never through the
// API server.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store grants presigned access to stored objects.
type Store interface {
	// PresignPut returns a URL the client can PUT the object to.
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	// PresignGet returns a URL the object can be fetched from.
	PresignGet(ctx context.Context, key string) (string, error)
	// Delete removes a stored object.
	Delete(ctx context.Context, key string) error
	// RandomKey generates a fresh storage key.
	RandomKey() string
}

// Options configures the S3 store. Endpoint is only set for
// S3-compatible services like minio.
type Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// seams for tests
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	presignPutObject = func(ctx context.Context, pc *s3.PresignClient, in *s3.PutObjectInput, ttl time.Duration) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, s3.WithPresignExpires(ttl))
	}

	presignGetObject = func(ctx context.Context, pc *s3.PresignClient, in *s3.GetObjectInput, ttl time.Duration) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, s3.WithPresignExpires(ttl))
	}

	deleteObject = func(ctx context.Context, c *s3.Client, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

var _ Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		ttl:     ttl,
	}, nil
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := presignPutObject(ctx, s.presign, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s.ttl)
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := presignGetObject(ctx, s.presign, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s.ttl)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := deleteObject(ctx, s.client, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// RandomKey groups objects by upload date.
func (s *S3Store) RandomKey() string {
	now := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%s", now.Year(), int(now.Month()), now.Day(), uuid.NewString())
}

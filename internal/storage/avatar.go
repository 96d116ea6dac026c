// Package storage keeps uploaded avatar images in an S3-compatible object
// store and hands back opaque storage keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"pinboard/config"
)

// AvatarStore accepts uploaded avatar images and returns stored references.
type AvatarStore interface {
	Put(ctx context.Context, r io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// S3AvatarStore implements AvatarStore against S3 or MinIO.
type S3AvatarStore struct {
	cfg config.S3Config
}

func NewS3AvatarStore(cfg config.S3Config) *S3AvatarStore {
	return &S3AvatarStore{cfg: cfg}
}

func (s *S3AvatarStore) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// storageKey spreads objects by upload date so buckets stay listable.
func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("avatars/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Put streams one image into the bucket and returns its storage key.
func (s *S3AvatarStore) Put(ctx context.Context, r io.Reader, contentType string) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	key := storageKey()
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// PresignGet returns a short-lived URL for rendering a stored avatar.
func (s *S3AvatarStore) PresignGet(ctx context.Context, key string) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	req, err := s3.NewPresignClient(client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Package minio implements the blob gateway on an S3-compatible server with
// the MinIO client.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/heartmarshall/promptboard/internal/domain"
)

// Config holds the connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Store is the MinIO blob gateway.
type Store struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	log    *slog.Logger
}

// New creates a Store. It does not contact the server.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio.New: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		expiry: expiry,
		log:    logger.With("adapter", "minio"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio.EnsureBucket: %w", err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio.EnsureBucket: %w", err)
	}
	s.log.InfoContext(ctx, "bucket created", slog.String("bucket", s.bucket))
	return nil
}

// Upload stores r under path.
func (s *Store) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("minio.Upload %s: %w", path, err)
	}
	return nil
}

// Delete removes path. A missing object reports domain.ErrNotFound.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.stat(ctx, path); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio.Delete %s: %w", path, err)
	}
	return nil
}

// DownloadURL returns a presigned GET URL for an existing object.
func (s *Store) DownloadURL(ctx context.Context, path string) (string, error) {
	if err := s.stat(ctx, path); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio.DownloadURL %s: %w", path, err)
	}
	return u.String(), nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("minio.Ping: %w", err)
	}
	return nil
}

func (s *Store) stat(ctx context.Context, path string) error {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("blob %s: %w", path, domain.ErrNotFound)
	}
	return fmt.Errorf("minio.Stat %s: %w", path, err)
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}

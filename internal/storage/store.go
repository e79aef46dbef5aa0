// Package storage keeps user uploaded media in S3 compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stocktalk/internal/config"
	"stocktalk/internal/middleware"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore stores objects and hands back the URL clients fetch them from.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
}

// MinioConfig holds the connection settings for a MinIO or S3 endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

// MinioConfigFrom copies the MINIO_* settings out of cfg.
func MinioConfigFrom(cfg *config.Config) MinioConfig {
	return MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Bucket:    cfg.MinioBucket,
		PublicURL: cfg.MinioPublicURL,
	}
}

// MinioStore implements ObjectStore on minio-go.
type MinioStore struct {
	cfg    MinioConfig
	client *minio.Client
}

// NewMinioStore creates the client. No request is made until EnsureBucket or Put.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	cfg.Endpoint = endpoint
	return &MinioStore{cfg: cfg, client: cl}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	middleware.Logger.Info("Created storage bucket", slog.String("bucket", s.cfg.Bucket))
	return nil
}

func (s *MinioStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, CacheControl: "public, max-age=31536000, immutable"})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return ObjectURL(s.cfg, key), nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// ObjectURL builds the public URL of key. MINIO_PUBLIC_URL wins over the
// endpoint when set, for deployments behind a CDN or proxy.
func ObjectURL(cfg MinioConfig, key string) string {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, strings.TrimLeft(key, "/"))
}

// KeyFromURL reverses ObjectURL. ok is false for URLs this store did not produce.
func KeyFromURL(cfg MinioConfig, url string) (key string, ok bool) {
	prefix := ObjectURL(cfg, "")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key = strings.TrimPrefix(url, prefix)
	return key, key != ""
}

// Package minio stores uploaded report images in an S3-compatible bucket.
package minio

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/couchcryptid/disaster-watch-service/internal/config"
	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/google/uuid"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 10 << 20

// ImageStore uploads images and returns their public URLs.
type ImageStore struct {
	client     *miniogo.Client
	bucket     string
	publicBase string
	logger     *slog.Logger
}

// NewImageStore connects to MinIO and creates the bucket if it is missing.
func NewImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ImageStore, error) {
	client, err := miniogo.New(cfg.MinIOEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinIOBucket, err)
		}
		logger.Info("created image bucket", "bucket", cfg.MinIOBucket)
	}
	return newImageStore(client, cfg.MinIOBucket, cfg.MinIOPublicURL, logger), nil
}

func newImageStore(client *miniogo.Client, bucket, publicBase string, logger *slog.Logger) *ImageStore {
	return &ImageStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger,
	}
}

// UploadImage stores one multipart image under prefix and returns its public URL.
func (s *ImageStore) UploadImage(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", domain.ErrInvalidInput, fh.Filename)
	}
	if fh.Size <= 0 || fh.Size > MaxImageSize {
		return "", fmt.Errorf("%w: %s must be between 1 byte and %d bytes", domain.ErrInvalidInput, fh.Filename, MaxImageSize)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	key := objectKey(prefix, fh.Filename)
	if _, err := s.client.PutObject(ctx, s.bucket, key, f, fh.Size, miniogo.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("%w: put object %s: %v", domain.ErrUpstream, key, err)
	}
	s.logger.Debug("image uploaded", "bucket", s.bucket, "key", key, "size", fh.Size)
	return s.publicURL(key), nil
}

// DeleteImage removes an object by key.
func (s *ImageStore) DeleteImage(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, miniogo.RemoveObjectOptions{})
}

func (s *ImageStore) publicURL(key string) string {
	u, err := url.Parse(s.publicBase)
	if err != nil {
		return s.publicBase + "/" + path.Join(s.bucket, key)
	}
	u.Path = path.Join(u.Path, s.bucket, key)
	return u.String()
}

var nonSafe = regexp.MustCompile(`[^a-z0-9\-_.]+`)

// sanitizeFileName keeps only [a-z0-9-_.] so keys are URL-safe.
func sanitizeFileName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = nonSafe.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_.")
	if name == "" {
		name = "file"
	}
	return name
}

// objectKey builds "<prefix>/<uuid>-<name><ext>".
func objectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	base := sanitizeFileName(strings.TrimSuffix(filename, path.Ext(filename)))
	return path.Join(sanitizeFileName(prefix), uuid.NewString()+"-"+base+ext)
}

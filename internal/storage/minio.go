// Package storage provides MinIO-backed object storage for work-order
// photos. Uploads and downloads go through presigned URLs so image bytes
// never pass through the API process.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"maintops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignedTTL bounds how long an upload or download link stays valid.
const presignedTTL = 15 * time.Minute

type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
}

// PresignedURL is a time-limited link plus the object key it addresses.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var photoContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
	"image/heic": {},
}

type Service struct {
	client      *minio.Client
	maxFileSize int64
}

func New(cfg Config) (*Service, error) {
	if cfg.GetMinIOEndpoint() == "" {
		return nil, fmt.Errorf("object storage is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	return &Service{client: client, maxFileSize: cfg.GetMinIOMaxFileSize()}, nil
}

// EnsureBucketExists creates the bucket on first use.
func (s *Service) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// GenerateUploadURL validates the file and presigns a PUT for it. The key is
// suffixed with a short random id so repeated uploads never overwrite.
func (s *Service) GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error) {
	if err := s.ValidateContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.ValidateFileSize(sizeBytes); err != nil {
		return nil, err
	}

	fileKey := uniqueKey(folder, fileName)
	expiresAt := time.Now().Add(presignedTTL)
	presigned, err := s.client.PresignedPutObject(ctx, bucket, fileKey, presignedTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %s: %w", fileKey, err)
	}

	return &PresignedURL{URL: presigned.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// GenerateDownloadURL presigns a GET for an existing object.
func (s *Service) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(presignedTTL)
	presigned, err := s.client.PresignedGetObject(ctx, bucket, fileKey, presignedTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign download for %s: %w", fileKey, err)
	}
	return &PresignedURL{URL: presigned.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// DeleteObject removes an object from storage.
func (s *Service) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", fileKey, err)
	}
	return nil
}

// ValidateContentType accepts photo types only.
func (s *Service) ValidateContentType(contentType string) error {
	if _, ok := photoContentTypes[strings.ToLower(contentType)]; !ok {
		return apperr.Validation(fmt.Sprintf("unsupported content type %q", contentType))
	}
	return nil
}

// ValidateFileSize enforces the configured upload ceiling.
func (s *Service) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return apperr.Validation("file size must be positive")
	}
	if s.maxFileSize > 0 && sizeBytes > s.maxFileSize {
		return apperr.Validation(fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize))
	}
	return nil
}

func uniqueKey(folder, fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(path.Base(fileName), ext)
	return path.Join(folder, fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext))
}

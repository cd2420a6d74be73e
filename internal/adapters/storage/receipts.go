// Package storage keeps payment receipts in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL bounds both upload and download links.
const PresignedURLTTL = 15 * time.Minute

type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketPaymentReceipts() string
	IsMinIOEnabled() bool
}

// receiptContentTypes are the formats accepted for receipts.
var receiptContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
}

// ReceiptStore presigns receipt uploads and downloads in a single bucket.
type ReceiptStore struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
	now         func() time.Time
}

func NewReceiptStore(cfg Config) (*ReceiptStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &ReceiptStore{
		client:      client,
		bucket:      cfg.GetMinioBucketPaymentReceipts(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		now:         time.Now,
	}, nil
}

// EnsureBucket creates the receipts bucket when missing.
func (s *ReceiptStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PresignUpload validates the file and returns a PUT URL under receipts/{paymentID}/.
func (s *ReceiptStore) PresignUpload(ctx context.Context, paymentID uuid.UUID, fileName, contentType string, sizeBytes int64) (PresignedURL, error) {
	if err := ValidateReceipt(contentType, sizeBytes, s.maxFileSize); err != nil {
		return PresignedURL{}, err
	}

	key := ReceiptKey(paymentID, fileName)
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, PresignedURLTTL)
	if err != nil {
		return PresignedURL{}, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}
	return PresignedURL{URL: u.String(), FileKey: key, ExpiresAt: s.now().Add(PresignedURLTTL)}, nil
}

func (s *ReceiptStore) PresignDownload(ctx context.Context, fileKey string) (PresignedURL, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", path.Base(fileKey)))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, params)
	if err != nil {
		return PresignedURL{}, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return PresignedURL{URL: u.String(), FileKey: fileKey, ExpiresAt: s.now().Add(PresignedURLTTL)}, nil
}

func (s *ReceiptStore) Delete(ctx context.Context, fileKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileKey, err)
	}
	return nil
}

// ReceiptKey builds a unique object key. The base name is reduced to safe characters.
func ReceiptKey(paymentID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	base := sanitizeBase(strings.TrimSuffix(path.Base(fileName), path.Ext(fileName)))
	if base == "" {
		base = "receipt"
	}
	return fmt.Sprintf("receipts/%s/%s_%s%s", paymentID, base, uuid.New().String()[:8], ext)
}

func ValidateReceipt(contentType string, sizeBytes, maxFileSize int64) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !receiptContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if maxFileSize > 0 && sizeBytes > maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxFileSize)
	}
	return nil
}

func sanitizeBase(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/paulzwecker/asklio-case-study/config"
	"github.com/paulzwecker/asklio-case-study/model"
)

// ArchiveService stores uploaded offer PDFs in object storage so the raw
// document is still available after the extraction result has been returned
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewArchiveService(cfg *config.MinioConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ArchiveOffer uploads the document and returns its archive record
func (s *ArchiveService) ArchiveOffer(ctx context.Context, filename, contentType string, data []byte) (*model.OfferDocument, error) {
	docID := uuid.New().String()
	objectName := fmt.Sprintf("offers/%s/%s", docID, filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload offer document: %w", err)
	}

	return &model.OfferDocument{
		ID:          docID,
		Filename:    filename,
		ContentType: contentType,
		StoragePath: objectName,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// GetPresignedURL generates a presigned URL for an archived document
func (s *ArchiveService) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

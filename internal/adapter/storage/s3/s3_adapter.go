// Package s3 uploads listing images to an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// KeyPrefix is the object key prefix for uploaded listing images.
const KeyPrefix = "listings/"

// S3Storage implements usecase.MediaUploader on MinIO or any S3 endpoint.
type S3Storage struct {
	client   *minio.Client
	bucket   string
	endpoint string
	logger   *logger.Logger
}

// NewS3Storage connects to endpoint and makes sure the bucket exists.
func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log = log.Named("S3Storage")
	log.Info("Initializing S3 storage", zap.String("endpoint", endpoint), zap.String("bucket", bucketName), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := client.BucketExists(ctx, bucketName)
		if errExists != nil || !exists {
			log.Error("Failed to make or verify bucket", zap.String("bucket", bucketName), zap.Error(err), zap.NamedError("exists_check_error", errExists))
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", bucketName, err)
		}
		log.Info("Bucket already exists", zap.String("bucket", bucketName))
	}

	return &S3Storage{
		client:   client,
		bucket:   bucketName,
		endpoint: client.EndpointURL().String(),
		logger:   log,
	}, nil
}

// Upload stores data under a fresh key and returns the object URL.
func (s *S3Storage) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	key := objectKey(originalFileName)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  http.DetectContentType(data),
		UserMetadata: map[string]string{"original-filename": filepath.Base(originalFileName)},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	s.logger.Info("Image uploaded",
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size))
	return objectURL(s.endpoint, s.bucket, key), nil
}

// objectKey keeps the file extension and replaces the name with a uuid.
func objectKey(originalFileName string) string {
	return KeyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(originalFileName))
}

func objectURL(endpoint, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(endpoint, "/"), bucket, key)
}

package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AttachmentStore keeps message attachments in a MinIO bucket.
type AttachmentStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
}

// NewAttachmentStore creates a MinIO-backed store and ensures the bucket exists.
func NewAttachmentStore(endpoint, accessKey, secretKey, bucket string) (*AttachmentStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &AttachmentStore{
		client:   client,
		bucket:   bucket,
		endpoint: endpoint,
	}, nil
}

// Upload stores an attachment under a random key, preserving the original
// file extension, and returns its public URL.
func (s *AttachmentStore) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	key := uuid.NewString() + path.Ext(filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading attachment: %w", err)
	}
	return s.URL(key), nil
}

// URL returns the public URL for an object key.
func (s *AttachmentStore) URL(key string) string {
	return fmt.Sprintf("http://%s/%s/%s", s.endpoint, s.bucket, key)
}

// Delete removes an attachment from the bucket.
func (s *AttachmentStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"whisper-scribe/internal/config"
)

const keyPrefix = "transcriptions"

// Artifact is a stored report file and a time-limited link to it.
type Artifact struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ArtifactStore keeps finished reports outside the server process.
type ArtifactStore interface {
	Put(ctx context.Context, jobID, name, contentType string, data []byte) (*Artifact, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// MinioArtifactStore implements ArtifactStore on an S3 compatible bucket.
type MinioArtifactStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioArtifactStore connects to cfg.Endpoint and creates the bucket if it
// does not exist.
func NewMinioArtifactStore(ctx context.Context, cfg config.StorageConfig) (*MinioArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return NewMinioArtifactStoreWithClient(client, cfg.Bucket, cfg.URLExpiry), nil
}

// NewMinioArtifactStoreWithClient wraps an existing client without touching
// the bucket.
func NewMinioArtifactStoreWithClient(client *minio.Client, bucket string, expiry time.Duration) *MinioArtifactStore {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MinioArtifactStore{client: client, bucket: bucket, expiry: expiry}
}

// ObjectKey returns the object key for a job's artifact.
func ObjectKey(jobID, name string) string {
	return path.Join(keyPrefix, jobID, path.Base(name))
}

// Put uploads data and returns a presigned download link.
func (s *MinioArtifactStore) Put(ctx context.Context, jobID, name, contentType string, data []byte) (*Artifact, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(jobID, name)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"job-id": jobID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, params)
	if err != nil {
		return nil, fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return &Artifact{
		Key:         key,
		Name:        path.Base(name),
		ContentType: contentType,
		Size:        int64(len(data)),
		URL:         link.String(),
		ExpiresAt:   time.Now().Add(s.expiry),
	}, nil
}

// DeleteJob removes every artifact stored for jobID.
func (s *MinioArtifactStore) DeleteJob(ctx context.Context, jobID string) error {
	prefix := path.Join(keyPrefix, jobID) + "/"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

var _ ArtifactStore = (*MinioArtifactStore)(nil)

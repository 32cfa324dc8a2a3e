// Package backup uploads collection exports to an S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/inventory"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("remote backups are not configured")

// Object describes a stored backup.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStore is the bucket the backups go to.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Service names and uploads backups.
type Service struct {
	store ObjectStore
	log   *zap.Logger
	now   func() time.Time
}

// New returns a service. A nil store disables backups.
func New(store ObjectStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Enabled reports whether a bucket is configured.
func (s *Service) Enabled() bool { return s.store != nil }

func prefix(owner int64) string {
	return fmt.Sprintf("user-%d/", owner)
}

// Upload stores an export of owner's collection and returns its object.
func (s *Service) Upload(ctx context.Context, owner int64, export []byte) (*Object, error) {
	if s.store == nil {
		return nil, ErrDisabled
	}
	now := s.now()
	key := path.Join(prefix(owner), inventory.ExportFilename(now))
	if err := s.store.Put(ctx, key, bytes.NewReader(export), int64(len(export)), "application/json"); err != nil {
		return nil, fmt.Errorf("uploading backup: %w", err)
	}
	s.log.Info("backup uploaded", zap.Int64("owner", owner), zap.String("key", key), zap.Int("bytes", len(export)))
	return &Object{Key: key, Size: int64(len(export)), LastModified: now.UTC()}, nil
}

// List returns owner's backups, newest first.
func (s *Service) List(ctx context.Context, owner int64) ([]Object, error) {
	if s.store == nil {
		return nil, ErrDisabled
	}
	objs, err := s.store.List(ctx, prefix(owner))
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	sort.SliceStable(objs, func(i, j int) bool { return objs[i].LastModified.After(objs[j].LastModified) })
	return objs, nil
}

// MinIO stores backups with the minio client.
type MinIO struct {
	client *minio.Client
	bucket string
}

// NewMinIO connects to endpoint and creates bucket when it is missing.
func NewMinIO(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIO, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}
	return &MinIO{client: client, bucket: bucket}, nil
}

// Put implements ObjectStore.
func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// List implements ObjectStore.
func (m *MinIO) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		out = append(out, Object{Key: info.Key, Size: info.Size, LastModified: info.LastModified})
	}
	return out, nil
}

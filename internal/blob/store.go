package blob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AttachmentStore abstracts the object store so the service and tests don't
// depend on a live S3 endpoint.
type AttachmentStore interface {
	PresignedUploadURL(ctx context.Context, userID int64, todoID string) (string, error)
	ExistingIDs(ctx context.Context, userID int64) (map[string]struct{}, error)
	Remove(ctx context.Context, userID int64, todoID string) error
	AttachmentURL(userID int64, todoID string) string
}

// Store holds uploaded attachments in an S3-compatible bucket. Objects are
// keyed "<userID>/<todoID>", so the attachment URL of an item is derivable
// from the item alone, without a pointer column.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	uploadTTL time.Duration
}

// Options configures a Store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	UploadTTL time.Duration
}

// New connects to the object store.
func New(opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob connect: %w", err)
	}
	ttl := opts.UploadTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		uploadTTL: ttl,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("blob bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("blob make bucket: %w", err)
	}
	return nil
}

// PresignedUploadURL returns a short-lived URL the client can PUT the file
// bytes to directly. Nothing is stored until the client does.
func (s *Store) PresignedUploadURL(ctx context.Context, userID int64, todoID string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, ObjectKey(userID, todoID), s.uploadTTL)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return u.String(), nil
}

// ExistingIDs returns the todo IDs of the user's uploaded attachments. One
// prefix listing per call, so List can mark items without a per-item stat.
func (s *Store) ExistingIDs(ctx context.Context, userID int64) (map[string]struct{}, error) {
	prefix := strconv.FormatInt(userID, 10) + "/"
	ids := make(map[string]struct{})
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("blob list: %w", obj.Err)
		}
		ids[strings.TrimPrefix(obj.Key, prefix)] = struct{}{}
	}
	return ids, nil
}

// Remove deletes the attachment object, if any. Removing a missing object is
// not an error.
func (s *Store) Remove(ctx context.Context, userID int64, todoID string) error {
	return s.client.RemoveObject(ctx, s.bucket, ObjectKey(userID, todoID), minio.RemoveObjectOptions{})
}

// AttachmentURL derives the public URL of the item's attachment.
func (s *Store) AttachmentURL(userID int64, todoID string) string {
	return AttachmentURL(s.publicURL, s.bucket, userID, todoID)
}

// ObjectKey derives the object key for a todo's attachment.
func ObjectKey(userID int64, todoID string) string {
	return strconv.FormatInt(userID, 10) + "/" + todoID
}

// AttachmentURL derives the public URL for a todo's attachment.
func AttachmentURL(publicURL, bucket string, userID int64, todoID string) string {
	return strings.TrimRight(publicURL, "/") + "/" + bucket + "/" + ObjectKey(userID, todoID)
}

// Package blob wraps the object store holding generated chapter images.
package blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
)

// Store provides existence, age, upload and URL operations on image objects.
type Store struct {
	bucket    *blob.Bucket
	bucketURL string
	publicURL string
}

// Open opens a bucket from a driver URL (file:///path, gs://bucket,
// s3://bucket). publicURL, when set, is the external base under which
// uploaded keys are reachable; it defaults to the bucket URL itself.
func Open(ctx context.Context, bucketURL, publicURL string) (*Store, error) {
	if strings.TrimSpace(bucketURL) == "" {
		return nil, fmt.Errorf("bucket URL is required")
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	if publicURL == "" {
		publicURL = bucketURL
	}
	return &Store{
		bucket:    bucket,
		bucketURL: strings.TrimSuffix(bucketURL, "/"),
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

// Exists reports whether an object is present under the key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return ok, nil
}

// LastModified returns the object's last-modified timestamp.
func (s *Store) LastModified(ctx context.Context, key string) (time.Time, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("attributes of %s: %w", key, err)
	}
	return attrs.ModTime, nil
}

// Upload writes the object under the key, overwriting any existing object.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// URL returns the externally visible URL for a key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + strings.TrimPrefix(key, "/")
}

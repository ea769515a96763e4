package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"jawara/pkg/types"
)

const (
	DriverSupabase = "supabase"
	DriverS3       = "s3"
)

// Bucket is an object store scoped to a single bucket. Both drivers return
// the object key from UploadFile and resolve it with GetPublicURL.
type Bucket interface {
	UploadFile(ctx context.Context, path string, body io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, path string) error
	GetPublicURL(path string) string
	PathFromURL(publicURL string) (string, bool)
}

var (
	_ Bucket = (*SupabaseStorage)(nil)
	_ Bucket = (*S3Storage)(nil)
)

// KTPObjectName builds ktp/ktp-<purpose>-<owner>-<unix millis>.<ext>.
func KTPObjectName(purpose, ownerID, filename, contentType string, now time.Time) string {
	return fmt.Sprintf("ktp/ktp-%s-%s-%d.%s", purpose, ownerID, now.UnixMilli(), extension(filename, contentType))
}

// MarketplaceObjectName builds <unix millis>-<original file name>.
func MarketplaceObjectName(filename string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}

func extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		if sub == "jpeg" {
			return "jpg"
		}
		return sub
	}
	return "bin"
}

func cutPrefix(s, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// Buckets holds one Bucket per upload purpose.
type Buckets struct {
	Verification Bucket
	Marketplace  Bucket
}

// NewBuckets builds both buckets for the configured driver.
func NewBuckets(ctx context.Context, config *types.Config) (*Buckets, error) {
	switch config.StorageDriver {
	case DriverSupabase, "":
		return &Buckets{
			Verification: NewSupabaseStorage(config.SupabaseProjectID, config.SupabaseServiceKey, config.VerificationBucket),
			Marketplace:  NewSupabaseStorage(config.SupabaseProjectID, config.SupabaseServiceKey, config.MarketplaceBucket),
		}, nil
	case DriverS3:
		client, err := NewS3Client(ctx, config)
		if err != nil {
			return nil, err
		}
		return &Buckets{
			Verification: NewS3Storage(client, config.VerificationBucket, config.S3PublicBaseURL),
			Marketplace:  NewS3Storage(client, config.MarketplaceBucket, config.S3PublicBaseURL),
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", config.StorageDriver)
}

package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jawara/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKTPObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "ktp/ktp-registration-u1-1700000000123.png",
		KTPObjectName("registration", "u1", "scan.PNG", "image/png", now))
	assert.Equal(t, "ktp/ktp-update-u1-1700000000123.jpg",
		KTPObjectName("update", "u1", "", "image/jpeg", now))
	assert.Equal(t, "ktp/ktp-assignment-u1-1700000000123.bin",
		KTPObjectName("assignment", "u1", "", "", now))
}

func TestMarketplaceObjectName(t *testing.T) {
	now := time.UnixMilli(42)

	assert.Equal(t, "42-sapu.jpg", MarketplaceObjectName("sapu.jpg", now))
	assert.Equal(t, "42-sapu.jpg", MarketplaceObjectName(`C:\photos\sapu.jpg`, now))
	assert.Equal(t, "42-image", MarketplaceObjectName("", now))
}

func TestSupabaseUploadAndDelete(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotType, gotUpsert, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotMethod, gotPath, gotBody = r.Method, r.URL.Path, string(body)
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bucket := NewSupabaseStorageWithURL(srv.URL+"/", "service-key", "verification")

	key, err := bucket.UploadFile(context.Background(), "ktp/a.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "ktp/a.png", key)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/storage/v1/object/verification/ktp/a.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "png-bytes", gotBody)

	require.NoError(t, bucket.DeleteFile(context.Background(), "ktp/a.png"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestSupabaseUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"The resource already exists"}`, http.StatusConflict)
	}))
	defer srv.Close()

	bucket := NewSupabaseStorageWithURL(srv.URL, "k", "verification")

	_, err := bucket.UploadFile(context.Background(), "ktp/a.png", strings.NewReader("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}

func TestSupabasePublicURLRoundTrip(t *testing.T) {
	bucket := NewSupabaseStorage("abc", "k", "marketplace")

	url := bucket.GetPublicURL("42-sapu.jpg")
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/marketplace/42-sapu.jpg", url)

	path, ok := bucket.PathFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "42-sapu.jpg", path)

	_, ok = bucket.PathFromURL("https://elsewhere.example/42-sapu.jpg")
	assert.False(t, ok)
}

func TestS3UploadAndDelete(t *testing.T) {
	var methods, paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newS3ClientFromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("id", "secret", ""),
	}, srv.URL)
	bucket := NewS3Storage(client, "verification", "https://cdn.example/")

	key, err := bucket.UploadFile(context.Background(), "ktp/a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "ktp/a.png", key)

	require.NoError(t, bucket.DeleteFile(context.Background(), "ktp/a.png"))

	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
	assert.Equal(t, []string{"/verification/ktp/a.png", "/verification/ktp/a.png"}, paths)

	assert.Equal(t, "https://cdn.example/verification/ktp/a.png", bucket.GetPublicURL(key))
	path, ok := bucket.PathFromURL("https://cdn.example/verification/ktp/a.png")
	require.True(t, ok)
	assert.Equal(t, "ktp/a.png", path)
}

func TestNewBucketsUnknownDriver(t *testing.T) {
	_, err := NewBuckets(context.Background(), &types.Config{StorageDriver: "ftp"})
	require.Error(t, err)
}

func TestNewBucketsSupabase(t *testing.T) {
	buckets, err := NewBuckets(context.Background(), &types.Config{
		StorageDriver:      DriverSupabase,
		SupabaseProjectID:  "abc",
		VerificationBucket: "verification",
		MarketplaceBucket:  "marketplace",
	})
	require.NoError(t, err)
	assert.Contains(t, buckets.Verification.GetPublicURL("x"), "/public/verification/x")
	assert.Contains(t, buckets.Marketplace.GetPublicURL("x"), "/public/marketplace/x")
}

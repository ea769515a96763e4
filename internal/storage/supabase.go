package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStorage stores objects in one Supabase Storage bucket.
type SupabaseStorage struct {
	baseURL    string
	apiKey     string
	bucketName string
	httpClient *http.Client
}

// NewSupabaseStorage creates a client for the bucket of a hosted project.
func NewSupabaseStorage(projectID, apiKey, bucketName string) *SupabaseStorage {
	return NewSupabaseStorageWithURL(fmt.Sprintf("https://%s.supabase.co", projectID), apiKey, bucketName)
}

// NewSupabaseStorageWithURL points the client at a self-hosted or local
// Supabase instance.
func NewSupabaseStorageWithURL(baseURL, apiKey, bucketName string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucketName: bucketName,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadFile uploads body under path. Existing objects are never overwritten.
// Returns the storage key (path) on success.
func (s *SupabaseStorage) UploadFile(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	fileBytes, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(path), bytes.NewReader(fileBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return path, nil
}

// DeleteFile removes the object stored under path.
func (s *SupabaseStorage) DeleteFile(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// GetPublicURL returns the public URL for a file.
func (s *SupabaseStorage) GetPublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucketName, path)
}

// PathFromURL reverses GetPublicURL. ok is false for URLs outside this bucket.
func (s *SupabaseStorage) PathFromURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucketName)
	return cutPrefix(publicURL, prefix)
}

func (s *SupabaseStorage) objectURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucketName, path)
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storagego "github.com/supabase-community/storage-go"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
)

// SupabaseStore writes to a public Supabase Storage bucket.
type SupabaseStore struct {
	client  *storagego.Client
	bucket  string
	baseURL string
}

var _ ObjectStore = (*SupabaseStore)(nil)

func NewSupabaseStore(supabaseURL, serviceRoleKey, bucket string) *SupabaseStore {
	baseURL := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStore{
		client:  storagego.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func (s *SupabaseStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStore) Upload(_ context.Context, data []byte, contentType, objectPath string) (string, error) {
	upsert := false
	_, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), storagego.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return s.PublicURL(objectPath), nil
}

// Download accepts only URLs previously returned by Upload.
func (s *SupabaseStore) Download(_ context.Context, url string) ([]byte, error) {
	objectPath, ok := strings.CutPrefix(url, s.PublicURL(""))
	if !ok || objectPath == "" {
		return nil, appErrors.NewNotFound("object %s not found", url)
	}
	data, err := s.client.DownloadFile(s.bucket, objectPath)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "not found") || strings.Contains(msg, "404") {
			return nil, appErrors.NewNotFound("object %s not found", url)
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}

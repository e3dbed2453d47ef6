package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
)

// ObjectStore holds submission assets and message attachments.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, contentType, objectPath string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// AssetPath is where an upload by userID on campaignID is stored.
func AssetPath(campaignID, userID, id, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("campaigns/%s/%s/%s-%s", campaignID, userID, id, name)
}

// MemoryStore keeps objects in process. URLs use the memory:// scheme.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

var _ ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: map[string][]byte{}}
}

func (m *MemoryStore) prefix() string {
	return "memory://" + m.bucket + "/"
}

func (m *MemoryStore) Upload(_ context.Context, data []byte, _ string, objectPath string) (string, error) {
	if objectPath == "" {
		return "", appErrors.NewInvalidInput("object path is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = append([]byte(nil), data...)
	return m.prefix() + objectPath, nil
}

func (m *MemoryStore) Download(_ context.Context, url string) ([]byte, error) {
	objectPath, ok := strings.CutPrefix(url, m.prefix())
	if !ok {
		return nil, appErrors.NewNotFound("object %s not found", url)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, appErrors.NewNotFound("object %s not found", url)
	}
	return append([]byte(nil), data...), nil
}

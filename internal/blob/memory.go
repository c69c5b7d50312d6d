package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-memory blob driver for tests, with an injectable upload
// failure and a call counter.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte

	FailUpload  error
	UploadCalls int
}

// NewMemory returns an empty memory blob store.
func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}}
}

func (m *Memory) Upload(_ context.Context, path string, r io.Reader, _ int64) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadCalls++
	if m.FailUpload != nil {
		return Handle{}, m.FailUpload
	}
	if path == "" {
		return Handle{}, fmt.Errorf("blob: path is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Handle{}, fmt.Errorf("blob: read content: %w", err)
	}
	m.files[path] = data
	return Handle{Path: path}, nil
}

func (m *Memory) ResolveURL(h Handle) (string, error) {
	if h.Path == "" {
		return "", fmt.Errorf("blob: empty handle")
	}
	return "blob://" + h.Path, nil
}

// Content returns the stored bytes for a path, for assertions.
func (m *Memory) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

var _ Store = (*Memory)(nil)

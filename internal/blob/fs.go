package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FS implements Store backed by the local file system. Uploaded assets are
// served back under baseURL, so ResolveURL never needs a network call.
type FS struct {
	root    string // absolute path to the asset directory
	baseURL string // public prefix, e.g. "http://localhost:8080/assets"
}

// NewFS creates an FS store rooted at the given directory, creating it if
// needed.
func NewFS(root, baseURL string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blob: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &FS{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the absolute asset directory, for serving files over HTTP.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative asset path against the root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("blob: path is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("blob: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("blob: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob: path escapes asset root: %s", rel)
	}
	return abs, nil
}

// Upload atomically writes the content: tmp file, fsync, rename.
func (f *FS) Upload(_ context.Context, p string, r io.Reader, _ int64) (Handle, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return Handle{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Handle{}, fmt.Errorf("blob: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".remedy-tmp-*")
	if err != nil {
		return Handle{}, fmt.Errorf("blob: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return Handle{}, fmt.Errorf("blob: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return Handle{}, fmt.Errorf("blob: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Handle{}, fmt.Errorf("blob: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return Handle{}, fmt.Errorf("blob: rename: %w", err)
	}
	success = true
	return Handle{Path: path.Clean(p)}, nil
}

// ResolveURL maps a handle to its public URL.
func (f *FS) ResolveURL(h Handle) (string, error) {
	if h.Path == "" {
		return "", fmt.Errorf("blob: empty handle")
	}
	return f.baseURL + "/" + h.Path, nil
}

var _ Store = (*FS)(nil)

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AssetHandler serves uploaded asset files from the blob root.
type AssetHandler struct {
	root string
}

// NewAssetHandler creates a handler rooted at the blob directory.
func NewAssetHandler(root string) *AssetHandler {
	return &AssetHandler{root: root}
}

// safePath validates the requested asset path and returns the absolute path
// under the blob root. Traversal outside the root is rejected.
func (h *AssetHandler) safePath(rel string) (string, bool) {
	if rel == "" {
		return "", false
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, "..") {
		return "", false
	}
	abs := filepath.Join(h.root, cleaned)
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) {
		return "", false
	}
	return abs, true
}

// Serve handles GET /assets/*.
func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request) {
	abs, ok := h.safePath(chi.URLParam(r, "*"))
	if !ok {
		http.Error(w, "invalid asset path", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

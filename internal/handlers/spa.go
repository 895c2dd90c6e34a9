package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built frontend. Files that exist are served as
// is; everything else falls back to index.html so client-side routes
// survive a page reload.
type SPAHandler struct {
	dist string
	fs   http.Handler
}

func NewSPAHandler(dist string) *SPAHandler {
	return &SPAHandler{
		dist: dist,
		fs:   http.FileServer(http.Dir(dist)),
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dist, filepath.Clean("/"+r.URL.Path))

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		// Hashed build assets are immutable.
		if strings.HasPrefix(r.URL.Path, "/assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		h.fs.ServeHTTP(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.dist, "index.html"))
}

package api

import (
	"embed"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/themes"
)

//go:embed static/index.html static/app.css static/app.js
var shellFS embed.FS

// ShellHandler serves the embedded single-page shell and its assets.
type ShellHandler struct{}

// Index handles GET /.
func (ShellHandler) Index(w http.ResponseWriter, r *http.Request) {
	data, err := shellFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

// Asset handles GET /static/{asset} for the shell's CSS and JS.
func (ShellHandler) Asset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "asset")
	data, err := shellFS.ReadFile("static/" + name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch {
	case strings.HasSuffix(name, ".css"):
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(name, ".js"):
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	}
	_, _ = w.Write(data)
}

// ThemeFileHandler serves theme CSS files from the theme directory.
type ThemeFileHandler struct {
	store *themes.Store
}

// NewThemeFileHandler creates a handler over the theme store's directory.
func NewThemeFileHandler(store *themes.Store) *ThemeFileHandler {
	return &ThemeFileHandler{store: store}
}

// ServeFile handles GET /static/css/themes/{file}. The filename is reduced
// to its sanitized id before touching the filesystem, so traversal through
// this route is impossible.
func (h *ThemeFileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	id := strings.TrimSuffix(filepath.Base(file), ".css")
	abs, err := h.store.FilePath(id)
	if err != nil {
		http.Error(w, "invalid theme", http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	http.ServeFile(w, r, abs)
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/audit"
	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/pathguard"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/themes"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *browse.Service
	themes   *themes.Store
	sessions *session.Manager
	rec      audit.Recorder
	startDir string // default browse target when ?path= is absent
}

// NewHandler creates a new Handler.
func NewHandler(svc *browse.Service, store *themes.Store, sessions *session.Manager, rec audit.Recorder, startDir string) *Handler {
	return &Handler{svc: svc, themes: store, sessions: sessions, rec: rec, startDir: startDir}
}

// recordDenial writes security-relevant denials to the audit log with the
// raw input and caller address, as required before any denial response.
func (h *Handler) recordDenial(r *http.Request, input string, err error) {
	switch {
	case errors.Is(err, pathguard.ErrSymlink):
		h.rec.Record(audit.KindSymlinkDenied, r.RemoteAddr, input)
	case errors.Is(err, apperr.ErrAccessDenied):
		h.rec.Record(audit.KindBoundaryDenied, r.RemoteAddr, input)
	case errors.Is(err, apperr.ErrInvalidInput):
		h.rec.Record(audit.KindInvalidPath, r.RemoteAddr, input)
	}
}

// CSRFToken handles GET /api/csrf-token.
//
//	@Summary		Get (or mint) the session's anti-forgery token
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	CSRFTokenResponse
//	@Router			/csrf-token [get]
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.sessions.GetOrIssue(w, r)
	if err != nil {
		slog.Error("csrf token issue failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, CSRFTokenResponse{CSRFToken: token})
}

// Browse handles GET /api/browse.
//
//	@Summary		List a directory inside the boundary
//	@Tags			browse
//	@Produce		json
//	@Param			path	query		string	false	"Absolute directory path (defaults to the start directory)"
//	@Success		200		{object}	BrowseResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/browse [get]
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = h.startDir
	}
	listing, err := h.svc.List(r.Context(), path)
	if err != nil {
		h.recordDenial(r, path, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// File handles GET /api/file.
//
//	@Summary		Read a Markdown file inside the boundary
//	@Tags			browse
//	@Produce		json
//	@Param			path	query		string	true	"Absolute file path"
//	@Success		200		{object}	FileResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		413		{object}	errResponse
//	@Router			/file [get]
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	file, err := h.svc.ReadFile(r.Context(), path)
	if err != nil {
		h.recordDenial(r, path, err)
		writeError(w, err)
		return
	}
	w.Header().Set("ETag", `"`+file.Checksum+`"`)
	writeJSON(w, http.StatusOK, file)
}

// ListThemes handles GET /api/themes.
//
//	@Summary		List CSS theme profiles
//	@Tags			themes
//	@Produce		json
//	@Success		200	{object}	ThemeListResponse
//	@Router			/themes [get]
func (h *Handler) ListThemes(w http.ResponseWriter, r *http.Request) {
	list, err := h.themes.List()
	if err != nil {
		slog.Error("list themes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ThemeListResponse{Themes: list})
}

// SaveTheme handles POST /api/themes. CSRF validation has already happened
// in middleware by the time this runs.
//
//	@Summary		Create or overwrite a theme
//	@Tags			themes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveThemeRequest	true	"Theme to save"
//	@Success		200		{object}	SaveThemeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		413		{object}	errResponse
//	@Router			/themes [post]
func (h *Handler) SaveTheme(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSaveTheme(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	id, err := h.themes.Save(req.ID, req.Name, req.Description, req.CSS)
	if err != nil {
		h.recordDenial(r, req.ID, err)
		writeError(w, err)
		return
	}
	h.rec.Record(audit.KindThemeSaved, r.RemoteAddr, id)
	writeJSON(w, http.StatusOK, SaveThemeResponse{Success: true, ID: id})
}

// decodeSaveTheme accepts either a JSON body or a form-encoded one (the
// latter matches the csrf_token form-field fallback).
func decodeSaveTheme(r *http.Request) (SaveThemeRequest, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		return SaveThemeRequest{
			ID:          r.PostFormValue("id"),
			Name:        r.PostFormValue("name"),
			Description: r.PostFormValue("description"),
			CSS:         r.PostFormValue("css"),
		}, nil
	}
	var req SaveThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return SaveThemeRequest{}, err
	}
	return req, nil
}

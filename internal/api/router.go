package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/audit"
	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/ratelimit"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/themes"
)

// NewRouter creates a chi router with all API routes mounted under /api.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *browse.Service, store *themes.Store, sessions *session.Manager,
	limiter *ratelimit.Limiter, rec audit.Recorder, startDir string, sseHandler http.Handler) chi.Router {

	h := NewHandler(svc, store, sessions, rec, startDir)
	limited := RateLimit(limiter, rec)

	r := chi.NewRouter()
	r.Use(LimitBody)

	// Session token.
	r.Get("/csrf-token", h.CSRFToken)

	// Filesystem browsing (rate limited).
	r.With(limited).Get("/browse", h.Browse)
	r.With(limited).Get("/file", h.File)

	// Themes. Saving needs a live CSRF token on top of the rate limit.
	r.Get("/themes", h.ListThemes)
	r.With(limited, RequireCSRF(sessions, rec)).Post("/themes", h.SaveTheme)

	// SSE endpoint for theme-change notifications.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewRootRouter wires the UI shell and theme CSS files: everything that
// lives outside /api.
func NewRootRouter(store *themes.Store) chi.Router {
	shell := ShellHandler{}
	tf := NewThemeFileHandler(store)

	r := chi.NewRouter()
	r.Get("/", shell.Index)
	r.Get("/static/{asset}", shell.Asset)
	r.Get("/static/css/themes/{file}", tf.ServeFile)
	return r
}

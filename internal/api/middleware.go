// Package api implements the Raido HTTP API using chi.
package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/starford/raido/internal/audit"
	"github.com/starford/raido/internal/ratelimit"
	"github.com/starford/raido/internal/session"
)

// maxRequestBody caps any request body the API will read.
const maxRequestBody = 16 << 20 // 16 MiB

// SecurityHeaders sets the restrictive response headers on every response.
// Scripts, styles, images, and connections are self-only; framing is
// denied outright.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self'; frame-ancestors 'none'")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// clientKey reduces a request to its rate-limit/audit key: the remote IP
// (chi's RealIP middleware has already rewritten RemoteAddr if a proxy
// header was present).
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns middleware that admits or denies by client IP.
// Denials are recorded to the audit log.
func RateLimit(limiter *ratelimit.Limiter, rec audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Admit(key) {
				rec.Record(audit.KindRateLimited, r.RemoteAddr, r.URL.Path)
				writeJSON(w, http.StatusTooManyRequests, errorBody("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// csrfToken extracts the presented token: the X-CSRF-Token header first,
// then a csrf_token form field for form-encoded bodies.
func csrfToken(r *http.Request) string {
	if t := r.Header.Get("X-CSRF-Token"); t != "" {
		return t
	}
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		return r.PostFormValue("csrf_token")
	}
	return ""
}

// RequireCSRF returns middleware that validates the anti-forgery token on
// state-changing requests. Missing, mismatched, and expired tokens are all
// the same 403.
func RequireCSRF(sessions *session.Manager, rec audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := csrfToken(r)
			if !sessions.Validate(r, presented) {
				rec.Record(audit.KindCSRFDenied, r.RemoteAddr, r.URL.Path)
				writeJSON(w, http.StatusForbidden, errorBody("CSRF validation failed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps request body reads via MaxBytesReader.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		}
		next.ServeHTTP(w, r)
	})
}

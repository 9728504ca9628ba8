// Package session issues and validates per-session CSRF tokens. State
// lives entirely in an HMAC-signed cookie; the server keeps nothing.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName carries the signed session payload.
	CookieName = "raido_session"
	// TokenTTL is the CSRF token lifetime. An expired token is treated
	// exactly like an invalid one.
	TokenTTL = time.Hour

	tokenBytes = 32 // 256 bits of entropy
)

// payload is the signed cookie content.
type payload struct {
	Token    string `json:"token"`
	IssuedAt int64  `json:"issued_at"`
}

// Manager signs, parses, and rotates session cookies.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager creates a Manager keyed by secret.
func NewManager(secret []byte) *Manager {
	return &Manager{secret: secret, now: time.Now}
}

// GetOrIssue returns the current CSRF token, minting and setting a fresh
// one when the cookie is absent, tampered, or older than TokenTTL.
func (m *Manager) GetOrIssue(w http.ResponseWriter, r *http.Request) (string, error) {
	if p, ok := m.fromRequest(r); ok && m.fresh(p) {
		return p.Token, nil
	}

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	p := payload{
		Token:    base64.RawURLEncoding.EncodeToString(buf),
		IssuedAt: m.now().Unix(),
	}
	m.setCookie(w, r, p)
	return p.Token, nil
}

// Validate reports whether presented matches the session's live token.
// No token, a signature mismatch, a token mismatch, and expiry all fail
// the same way.
func (m *Manager) Validate(r *http.Request, presented string) bool {
	if presented == "" {
		return false
	}
	p, ok := m.fromRequest(r)
	if !ok || !m.fresh(p) {
		return false
	}
	return hmac.Equal([]byte(p.Token), []byte(presented))
}

func (m *Manager) fresh(p payload) bool {
	age := m.now().Sub(time.Unix(p.IssuedAt, 0))
	return age >= 0 && age < TokenTTL
}

func (m *Manager) fromRequest(r *http.Request) (payload, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return payload{}, false
	}
	return m.decode(c.Value)
}

func (m *Manager) setCookie(w http.ResponseWriter, r *http.Request, p payload) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.encode(p),
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// encode produces base64url(payload).base64url(hmac).
func (m *Manager) encode(p payload) string {
	body, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(body) + "." +
		base64.RawURLEncoding.EncodeToString(m.sign(body))
}

func (m *Manager) decode(v string) (payload, bool) {
	dot := strings.LastIndexByte(v, '.')
	if dot < 0 {
		return payload{}, false
	}
	body, err := base64.RawURLEncoding.DecodeString(v[:dot])
	if err != nil {
		return payload{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(v[dot+1:])
	if err != nil {
		return payload{}, false
	}
	if !hmac.Equal(sig, m.sign(body)) {
		return payload{}, false
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return payload{}, false
	}
	return p, true
}

func (m *Manager) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

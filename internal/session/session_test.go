package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testManager() *Manager {
	return NewManager([]byte("test-secret-0123456789abcdef0123"))
}

// issue runs GetOrIssue and returns the token plus the set cookie.
func issue(t *testing.T, m *Manager, prior *http.Cookie) (string, *http.Cookie) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	if prior != nil {
		r.AddCookie(prior)
	}
	w := httptest.NewRecorder()
	token, err := m.GetOrIssue(w, r)
	if err != nil {
		t.Fatalf("GetOrIssue: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return token, c
		}
	}
	return token, prior
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/themes", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestGetOrIssue_PersistsWithinTTL(t *testing.T) {
	m := testManager()
	token1, cookie := issue(t, m, nil)
	if token1 == "" || cookie == nil {
		t.Fatal("no token or cookie issued")
	}
	token2, _ := issue(t, m, cookie)
	if token1 != token2 {
		t.Errorf("token rotated within TTL: %q vs %q", token1, token2)
	}
}

func TestGetOrIssue_RotatesAfterExpiry(t *testing.T) {
	m := testManager()
	token1, cookie := issue(t, m, nil)

	m.now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }
	token2, _ := issue(t, m, cookie)
	if token1 == token2 {
		t.Error("token not rotated after expiry")
	}
}

func TestValidate_Accepts(t *testing.T) {
	m := testManager()
	token, cookie := issue(t, m, nil)
	if !m.Validate(requestWith(cookie), token) {
		t.Error("valid token rejected")
	}
}

func TestValidate_RejectsWrongToken(t *testing.T) {
	m := testManager()
	_, cookie := issue(t, m, nil)
	if m.Validate(requestWith(cookie), "not-the-token") {
		t.Error("wrong token accepted")
	}
}

func TestValidate_RejectsMissingCookie(t *testing.T) {
	m := testManager()
	token, _ := issue(t, m, nil)
	if m.Validate(requestWith(nil), token) {
		t.Error("token accepted without a session cookie")
	}
}

func TestValidate_RejectsExpired(t *testing.T) {
	m := testManager()
	token, cookie := issue(t, m, nil)

	m.now = func() time.Time { return time.Now().Add(TokenTTL) }
	if m.Validate(requestWith(cookie), token) {
		t.Error("expired token accepted")
	}
}

func TestValidate_RejectsTamperedCookie(t *testing.T) {
	m := testManager()
	token, cookie := issue(t, m, nil)

	forged := *cookie
	forged.Value = cookie.Value[:len(cookie.Value)-2] + "xx"
	if m.Validate(requestWith(&forged), token) {
		t.Error("tampered cookie accepted")
	}
}

func TestValidate_RejectsForeignSecret(t *testing.T) {
	m := testManager()
	token, cookie := issue(t, m, nil)

	other := NewManager([]byte("a-completely-different-secret!!!"))
	if other.Validate(requestWith(cookie), token) {
		t.Error("cookie signed with another secret accepted")
	}
}

func TestCookieAttributes(t *testing.T) {
	m := testManager()
	_, cookie := issue(t, m, nil)
	if !cookie.HttpOnly {
		t.Error("cookie not HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.MaxAge != int(TokenTTL.Seconds()) {
		t.Errorf("MaxAge = %d", cookie.MaxAge)
	}
}

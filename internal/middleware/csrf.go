package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfTokenLen   = 32
	csrfMaxAge     = 12 * 60 * 60
)

// CSRF implements double-submit cookie protection. The token cookie is
// deliberately not HttpOnly so the frontend can echo it back in the
// X-CSRF-Token header on state-changing requests.
type CSRF struct {
	secure bool
}

func NewCSRF(secure bool) *CSRF {
	return &CSRF{secure: secure}
}

// Protect validates the CSRF header against the cookie for every
// non-safe method. Safe methods pass through and get a token issued if
// the client doesn't have one yet.
func (m *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			m.ensureToken(w, r)
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			csrfReject(w, "CSRF token missing")
			return
		}

		header := r.Header.Get(csrfHeaderName)
		if header == "" {
			csrfReject(w, "CSRF token header missing")
			return
		}

		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			csrfReject(w, "CSRF token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Token hands the current token to the frontend, minting one if needed.
// The SPA calls this once on load before its first POST.
func (m *CSRF) Token(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(csrfCookieName)
	if err == nil && cookie.Value != "" {
		writeCSRFToken(w, cookie.Value)
		return
	}

	token, err := newCSRFToken()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to generate CSRF token"}`))
		return
	}

	m.setCookie(w, token)
	writeCSRFToken(w, token)
}

func (m *CSRF) ensureToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(csrfCookieName)
	if err == nil && cookie.Value != "" {
		w.Header().Set(csrfHeaderName, cookie.Value)
		return
	}

	token, err := newCSRFToken()
	if err != nil {
		return
	}

	m.setCookie(w, token)
	w.Header().Set(csrfHeaderName, token)
}

func (m *CSRF) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfMaxAge,
		HttpOnly: false,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func csrfReject(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

func writeCSRFToken(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
}

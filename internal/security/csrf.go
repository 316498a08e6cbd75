package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-salon/internal/common"
)

const (
	DefaultCSRFCookie = "csrf_token"
	DefaultCSRFHeader = "X-CSRF-Token"
)

// CSRF is a double-submit guard for dashboards that authenticate with the
// access cookie. Safe requests receive a token cookie; unsafe requests that
// carry the access cookie must echo it in the header. Bearer requests and
// requests without the access cookie pass through.
type CSRF struct {
	AccessCookie string
	CookieName   string
	HeaderName   string
	Secure       bool
}

func (c CSRF) names() (cookie, header string) {
	cookie, header = c.CookieName, c.HeaderName
	if cookie == "" {
		cookie = DefaultCSRFCookie
	}
	if header == "" {
		header = DefaultCSRFHeader
	}
	return cookie, header
}

// Middleware enforces the token on unsafe methods.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	cookieName, headerName := c.names()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if _, err := r.Cookie(cookieName); err != nil {
				c.issue(w, cookieName)
			}
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(strings.ToLower(r.Header.Get("Authorization")), "bearer ") || !c.cookieSession(r) {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(cookieName)
		token := r.Header.Get(headerName)
		if err != nil || cookie.Value == "" || token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "csrf token required", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "csrf token mismatch", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c CSRF) cookieSession(r *http.Request) bool {
	if c.AccessCookie == "" {
		return false
	}
	ck, err := r.Cookie(c.AccessCookie)
	return err == nil && ck.Value != ""
}

func (c CSRF) issue(w http.ResponseWriter, name string) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.RawURLEncoding.EncodeToString(buf),
		Path:     "/",
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

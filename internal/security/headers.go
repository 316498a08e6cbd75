// Package security holds the HTTP hardening middleware: response headers,
// CORS, body limits, CSRF and the API-wide rate limit.
package security

import (
	"net/http"
	"strconv"

	"github.com/go-chi/cors"
)

// Headers sets standard hardening headers. HSTS is only sent when enabled,
// which the API does in production.
type Headers struct {
	HSTS       bool
	HSTSMaxAge int
}

// Middleware attaches the headers before calling next.
func (h Headers) Middleware(next http.Handler) http.Handler {
	hsts := ""
	if h.HSTS {
		age := h.HSTSMaxAge
		if age <= 0 {
			age = 31536000
		}
		hsts = "max-age=" + strconv.Itoa(age) + "; includeSubDomains"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Referrer-Policy", "no-referrer")
		hdr.Set("Cross-Origin-Opener-Policy", "same-origin")
		if hsts != "" {
			hdr.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// CORS allows the dashboard origins. Credentials are only allowed for an
// explicit list; a "*" entry disables them.
func CORS(origins []string) func(http.Handler) http.Handler {
	credentials := len(origins) > 0
	for _, o := range origins {
		if o == "*" {
			credentials = false
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", DefaultCSRFHeader, "X-Request-ID", "Idempotency-Key", "X-Branch-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-RateLimit-Remaining", "Idempotent-Replayed"},
		AllowCredentials: credentials,
		MaxAge:           300,
	})
}

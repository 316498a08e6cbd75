package security

import (
	"net/http"

	"github.com/noah-isme/backend-salon/internal/common"
)

// BodyLimit caps request bodies at Max bytes. Declared oversize bodies are
// refused up front; chunked ones fail with *http.MaxBytesError on read,
// which common.DecodeAndValidate maps to 413.
func BodyLimit(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max <= 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > max {
				common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

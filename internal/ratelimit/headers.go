package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// WriteHeaders sets the X-RateLimit headers, plus Retry-After when the
// attempt was refused.
func WriteHeaders(w http.ResponseWriter, d Decision, now time.Time) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(max(d.Limit, 0)))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		h.Set("Retry-After", strconv.Itoa(RetryAfter(d, now)))
	}
}

// RetryAfter is the whole number of seconds until the window frees a slot.
func RetryAfter(d Decision, now time.Time) int {
	secs := math.Ceil(d.ResetAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}

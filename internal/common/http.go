package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address. chi's RealIP middleware rewrites
// RemoteAddr from proxy headers, so the forwarded headers are only consulted
// when RemoteAddr is empty.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
		return strings.TrimSpace(r.Header.Get("X-Real-IP"))
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

package web

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/explorer/internal/core"
	"github.com/JonMunkholm/explorer/internal/logging"
)

// requestMetadata attaches the caller to the request context: recorded
// events carry the client, handler log lines carry its IP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := core.WithClient(r.Context(), core.Client{IP: ip, UserAgent: r.UserAgent()})
		ctx = logging.With(ctx, "client_ip", ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the host part of RemoteAddr, already rewritten by
// TrustedRealIP for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

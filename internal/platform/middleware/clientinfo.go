package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"namereg/pkg/requestcontext"
)

// ClientInfo parses the client IP and User-Agent into the request context so
// audit events can be annotated without transport knowledge in services.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		browser, osName := "", ""
		if raw := r.UserAgent(); raw != "" {
			ua := useragent.New(raw)
			name, version := ua.Browser()
			browser = name
			if version != "" {
				browser = name + "/" + version
			}
			osName = ua.OS()
		}

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, browser, osName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	// Trust the first proxy hop if present; fall back to the socket peer.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

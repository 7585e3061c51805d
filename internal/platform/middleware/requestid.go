package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"namereg/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches a request ID to the context and response, reusing the
// inbound header when a gateway already assigned one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

package testutil

import (
	"context"
	"net/http"

	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// WithCaller attaches a caller principal to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithCaller(req *http.Request, caller id.PrincipalID) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), caller)
	return req.WithContext(ctx)
}

// WithAnonymousCaller attaches the anonymous principal, matching a request
// that carried no (or an invalid) bearer token.
func WithAnonymousCaller(req *http.Request) *http.Request {
	return WithCaller(req, id.Anonymous)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

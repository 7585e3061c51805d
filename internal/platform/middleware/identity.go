package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// TokenValidator resolves a bearer token to the principal it was issued to.
type TokenValidator interface {
	PrincipalOf(tokenString string) (id.PrincipalID, error)
}

// Identity extracts the caller principal from the Authorization header.
//
// Authentication never rejects a request here: a missing or invalid token
// simply leaves the caller anonymous, and anonymous callers resolve to the
// guest role downstream. Authorization is the services' job, which is what
// lets open queries and role-gated mutations share one middleware chain.
func Identity(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := id.Anonymous

			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				principal, err := validator.PrincipalOf(token)
				if err != nil {
					logger.WarnContext(ctx, "invalid bearer token, treating caller as anonymous",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				} else {
					caller = principal
				}
			}

			ctx = requestcontext.WithCaller(ctx, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCaller retrieves the caller principal set by Identity.
func GetCaller(r *http.Request) id.PrincipalID {
	return requestcontext.Caller(r.Context())
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/pkg/api"
)

// RequireAuth returns an interceptor that validates the bearer token and puts
// the resulting auth.Session on the context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			sess, err := jwtManager.Session(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(auth.WithSession(ctx, sess), req)
		}
	}
}

// OptionalAuth attaches a session when a valid token is present and lets the
// request through either way. Handlers that need a caller check
// auth.SessionFrom themselves.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if sess, err := jwtManager.Session(req.Header().Get("Authorization")); err == nil {
				ctx = auth.WithSession(ctx, sess)
			}
			return next(ctx, req)
		}
	}
}

// Authenticate is the REST counterpart of RequireAuth. Requests without a
// valid bearer token get 401 and never reach next.
func Authenticate(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := jwtManager.Session(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(api.Error{Error: err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
)

func sessionUserID(ctx context.Context) string {
	sess, _ := auth.SessionFrom(ctx) // empty if pre-auth
	return sess.UserID
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and records it in m under the procedure name. Chain it after the auth
// interceptor to get user IDs in the log.
func LoggingInterceptor(logger *slog.Logger, m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			userID := sessionUserID(ctx)

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					logger.Warn("RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"user_id", userID,
						"duration_ms", elapsed.Milliseconds(),
					)
				} else {
					logger.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"user_id", userID,
						"duration_ms", elapsed.Milliseconds(),
					)
				}
			} else {
				logger.Info("RPC ok",
					"procedure", procedure,
					"user_id", userID,
					"duration_ms", elapsed.Milliseconds(),
				)
			}

			m.ObserveRequest(procedure, http.MethodPost, rpcStatus(err), elapsed)
			return resp, err
		}
	}
}

// rpcStatus maps a handler result onto the HTTP status Connect sends for it.
func rpcStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch connect.CodeOf(err) {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	case connect.CodePermissionDenied:
		return http.StatusForbidden
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeAlreadyExists, connect.CodeAborted:
		return http.StatusConflict
	case connect.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Logging logs each REST request and records it under its route template,
// so /api/groups/{id} is one series regardless of the ID.
func Logging(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			elapsed := time.Since(start)
			m.ObserveRequest(route, r.Method, rec.status, elapsed)

			attrs := []any{
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", rec.status,
				"remote_addr", r.RemoteAddr,
				"duration_ms", elapsed.Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Error("Request failed", attrs...)
				return
			}
			logger.Info("Request completed", attrs...)
		})
	}
}

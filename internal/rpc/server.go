package rpc

import (
	"log/slog"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
)

// Deps are the services and shared infrastructure behind the procedures.
type Deps struct {
	Groups     *service.GroupService
	Auth       *service.AuthService
	JWTManager *auth.JWTManager
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Mount registers both Connect services on router.
func Mount(router *mux.Router, d Deps) {
	logging := middleware.LoggingInterceptor(d.Logger, d.Metrics)

	groupPath, groupHandler := NewGroupServiceHandler(d.Groups,
		WithJSON(),
		connect.WithInterceptors(middleware.RequireAuth(d.JWTManager), logging),
	)
	router.PathPrefix(groupPath).Handler(groupHandler)

	authPath, authHandler := NewAuthServiceHandler(d.Auth,
		WithJSON(),
		connect.WithInterceptors(middleware.OptionalAuth(d.JWTManager), logging),
	)
	router.PathPrefix(authPath).Handler(authHandler)
}

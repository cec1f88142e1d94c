// Package httpapi serves the JSON REST API under /api with gorilla/mux.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/pkg/api"
)

// Deps are the services and shared infrastructure behind the routes.
type Deps struct {
	Groups     *service.GroupService
	Auth       *service.AuthService
	JWTManager *auth.JWTManager
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// NewRouter registers the REST routes and /metrics. Every matched route is
// logged and counted. Unmatched paths and methods answer with a JSON error.
func NewRouter(d Deps) *mux.Router {
	h := NewHandler(d.Groups, d.Auth, d.Logger)
	authed := func(f http.HandlerFunc) http.Handler {
		return middleware.Authenticate(d.JWTManager)(f)
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging(d.Logger, d.Metrics))
	router.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	r := router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.Handle("/auth/me", authed(h.Me)).Methods(http.MethodGet)
	r.Handle("/groups", authed(h.ListGroups)).Methods(http.MethodGet)
	r.Handle("/groups", authed(h.CreateGroup)).Methods(http.MethodPost)
	r.Handle("/groups/{id}", authed(h.GetGroup)).Methods(http.MethodGet)
	r.Handle("/groups/{id}/members", authed(h.ListMembers)).Methods(http.MethodGet)
	r.Handle("/groups/{id}/members", authed(h.AddMember)).Methods(http.MethodPost)
	r.Handle("/groups/{id}/members/{userId}", authed(h.RemoveMember)).Methods(http.MethodDelete)
	r.Handle("/groups/{id}/expenses", authed(h.ListExpenses)).Methods(http.MethodGet)
	r.Handle("/groups/{id}/expenses", authed(h.LogExpense)).Methods(http.MethodPost)
	r.Handle("/groups/{id}/settlements", authed(h.ListPayments)).Methods(http.MethodGet)
	r.Handle("/groups/{id}/settlements", authed(h.RecordPayment)).Methods(http.MethodPost)
	r.Handle("/groups/{id}/balances", authed(h.GetBalances)).Methods(http.MethodGet)

	for _, sub := range []*mux.Router{router, r} {
		sub.NotFoundHandler = http.HandlerFunc(notFound)
		sub.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}
	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, http.StatusNotFound, api.Error{Error: "no route for " + r.URL.Path})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, http.StatusMethodNotAllowed, api.Error{Error: r.Method + " is not allowed on " + r.URL.Path})
}

package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/pkg/api"
)

const (
	// AuthServiceName is the fully-qualified name of the auth service.
	AuthServiceName = "settleup.v1.AuthService"

	AuthServiceRegisterProcedure = "/settleup.v1.AuthService/Register"
	AuthServiceLoginProcedure    = "/settleup.v1.AuthService/Login"
	AuthServiceMeProcedure       = "/settleup.v1.AuthService/Me"
)

// NewAuthServiceHandler serves Register, Login and Me. Register and Login
// are public, so mount it behind middleware.OptionalAuth rather than
// RequireAuth; Me rejects calls without a session.
func NewAuthServiceHandler(svc *service.AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	procedures := map[string]*connect.Handler{
		AuthServiceRegisterProcedure: connect.NewUnaryHandler(AuthServiceRegisterProcedure,
			func(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
				user, token, err := svc.Register(ctx, *req.Msg)
				if err != nil {
					return nil, connectError(err, connect.CodeAlreadyExists)
				}
				return connect.NewResponse(&api.AuthResponse{Token: token, User: api.FromUser(user)}), nil
			}, opts...),
		AuthServiceLoginProcedure: connect.NewUnaryHandler(AuthServiceLoginProcedure,
			func(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
				user, token, err := svc.Login(ctx, *req.Msg)
				if err != nil {
					return nil, connectError(err, connect.CodeAlreadyExists)
				}
				return connect.NewResponse(&api.AuthResponse{Token: token, User: api.FromUser(user)}), nil
			}, opts...),
		AuthServiceMeProcedure: sessionHandler(AuthServiceMeProcedure, connect.CodeAlreadyExists,
			func(ctx context.Context, sess auth.Session, _ *api.MeRequest) (*api.MeResponse, error) {
				user, err := svc.Me(ctx, sess)
				if err != nil {
					return nil, err
				}
				return &api.MeResponse{User: api.FromUser(user)}, nil
			}, opts...),
	}
	return "/" + AuthServiceName + "/", procedureMux(procedures)
}

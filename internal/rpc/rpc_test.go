package rpc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "rpc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	jwtManager := auth.NewJWTManager("rpc-test-secret-key", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	router := mux.NewRouter()
	Mount(router, Deps{
		Groups:     service.NewGroupService(store, calculator.DefaultPlanner, nil, m, logger),
		Auth:       service.NewAuthService(authenticator, store, jwtManager, logger),
		JWTManager: jwtManager,
		Logger:     logger,
		Metrics:    m,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func client[Req, Res any](srv *httptest.Server, procedure string) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](srv.Client(), srv.URL+procedure, WithJSON())
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func register(t *testing.T, srv *httptest.Server, name string) *api.AuthResponse {
	t.Helper()
	res, err := client[api.RegisterRequest, api.AuthResponse](srv, AuthServiceRegisterProcedure).CallUnary(
		context.Background(),
		connect.NewRequest(&api.RegisterRequest{Email: name + "@example.com", Name: name, Password: "password123"}),
	)
	require.NoError(t, err)
	return res.Msg
}

func TestAuthService(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()

	ana := register(t, srv, "ana")
	assert.NotEmpty(t, ana.Token)

	_, err := client[api.RegisterRequest, api.AuthResponse](srv, AuthServiceRegisterProcedure).CallUnary(ctx,
		connect.NewRequest(&api.RegisterRequest{Email: "ana@example.com", Name: "Ana", Password: "password123"}))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	_, err = client[api.LoginRequest, api.AuthResponse](srv, AuthServiceLoginProcedure).CallUnary(ctx,
		connect.NewRequest(&api.LoginRequest{Email: "ana@example.com", Password: "nope-nope"}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	me := client[api.MeRequest, api.MeResponse](srv, AuthServiceMeProcedure)
	_, err = me.CallUnary(ctx, withToken(&api.MeRequest{}, ""))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	res, err := me.CallUnary(ctx, withToken(&api.MeRequest{}, ana.Token))
	require.NoError(t, err)
	assert.Equal(t, ana.User.ID, res.Msg.User.ID)
}

func TestGroupService(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()
	a, b, c := register(t, srv, "a"), register(t, srv, "b"), register(t, srv, "c")

	_, err := client[api.ListGroupsRequest, api.List[api.Group]](srv, GroupServiceListGroupsProcedure).
		CallUnary(ctx, withToken(&api.ListGroupsRequest{}, ""))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	created, err := client[api.CreateGroupRequest, api.Group](srv, GroupServiceCreateGroupProcedure).CallUnary(ctx,
		withToken(&api.CreateGroupRequest{
			Name:    "Trip",
			Members: []api.Member{{Email: b.User.Email}, {Email: c.User.Email}},
		}, a.Token))
	require.NoError(t, err)
	groupID := created.Msg.ID
	require.Len(t, created.Msg.Members, 3)

	_, err = client[api.LogExpenseRequest, api.Expense](srv, GroupServiceLogExpenseProcedure).CallUnary(ctx,
		withToken(&api.LogExpenseRequest{GroupID: groupID, Amount: money.Amount(30000), Description: "Hotel"}, a.Token))
	require.NoError(t, err)

	balances := client[api.GroupRequest, api.Balances](srv, GroupServiceGetBalancesProcedure)
	res, err := balances.CallUnary(ctx, withToken(&api.GroupRequest{GroupID: groupID}, c.Token))
	require.NoError(t, err)
	require.Len(t, res.Msg.Net, 3)
	assert.Equal(t, money.Amount(20000), res.Msg.Net[0].Net)
	require.Len(t, res.Msg.Suggestions, 2)
	assert.Equal(t, a.User.ID, res.Msg.Suggestions[0].To.UserID)

	_, err = balances.CallUnary(ctx, withToken(&api.GroupRequest{GroupID: "nope"}, c.Token))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	outsider := register(t, srv, "outsider")
	_, err = balances.CallUnary(ctx, withToken(&api.GroupRequest{GroupID: groupID}, outsider.Token))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = client[api.RemoveMemberRequest, api.RemoveMemberResponse](srv, GroupServiceRemoveMemberProcedure).CallUnary(ctx,
		withToken(&api.RemoveMemberRequest{GroupID: groupID, UserID: b.User.ID}, a.Token))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = client[api.AddMemberRequest, api.Member](srv, GroupServiceAddMemberProcedure).CallUnary(ctx,
		withToken(&api.AddMemberRequest{GroupID: groupID, Email: b.User.Email}, a.Token))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))
}

func TestUnknownProcedure(t *testing.T) {
	srv := setupServer(t)
	resp, err := srv.Client().Post(srv.URL+"/settleup.v1.GroupService/Nope", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

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
	// GroupServiceName is the fully-qualified name of the group service.
	GroupServiceName = "settleup.v1.GroupService"

	GroupServiceCreateGroupProcedure   = "/settleup.v1.GroupService/CreateGroup"
	GroupServiceListGroupsProcedure    = "/settleup.v1.GroupService/ListGroups"
	GroupServiceGetGroupProcedure      = "/settleup.v1.GroupService/GetGroup"
	GroupServiceListMembersProcedure   = "/settleup.v1.GroupService/ListMembers"
	GroupServiceAddMemberProcedure     = "/settleup.v1.GroupService/AddMember"
	GroupServiceRemoveMemberProcedure  = "/settleup.v1.GroupService/RemoveMember"
	GroupServiceLogExpenseProcedure    = "/settleup.v1.GroupService/LogExpense"
	GroupServiceListExpensesProcedure  = "/settleup.v1.GroupService/ListExpenses"
	GroupServiceRecordPaymentProcedure = "/settleup.v1.GroupService/RecordPayment"
	GroupServiceListPaymentsProcedure  = "/settleup.v1.GroupService/ListPayments"
	GroupServiceGetBalancesProcedure   = "/settleup.v1.GroupService/GetBalances"
)

// sessionHandler adapts an authenticated call. The session is put on the
// context by middleware.RequireAuth.
func sessionHandler[Req, Res any](
	procedure string,
	conflict connect.Code,
	call func(context.Context, auth.Session, *Req) (*Res, error),
	opts ...connect.HandlerOption,
) *connect.Handler {
	return connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			sess, ok := auth.SessionFrom(ctx)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}
			res, err := call(ctx, sess, req.Msg)
			if err != nil {
				return nil, connectError(err, conflict)
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	)
}

// NewGroupServiceHandler builds an HTTP handler serving every group
// procedure. It returns the path to mount it on.
func NewGroupServiceHandler(svc *service.GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	exists := connect.CodeAlreadyExists
	procedures := map[string]*connect.Handler{
		GroupServiceCreateGroupProcedure: sessionHandler(GroupServiceCreateGroupProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.CreateGroupRequest) (*api.Group, error) {
				g, err := svc.CreateGroup(ctx, sess, *req)
				if err != nil {
					return nil, err
				}
				out := api.FromGroup(g)
				return &out, nil
			}, opts...),
		GroupServiceListGroupsProcedure: sessionHandler(GroupServiceListGroupsProcedure, exists,
			func(ctx context.Context, sess auth.Session, _ *api.ListGroupsRequest) (*api.List[api.Group], error) {
				groups, err := svc.ListGroups(ctx, sess)
				if err != nil {
					return nil, err
				}
				out := api.NewList(api.FromGroups(groups))
				return &out, nil
			}, opts...),
		GroupServiceGetGroupProcedure: sessionHandler(GroupServiceGetGroupProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.GroupRequest) (*api.Group, error) {
				g, err := svc.GetGroup(ctx, sess, req.GroupID)
				if err != nil {
					return nil, err
				}
				out := api.FromGroup(g)
				return &out, nil
			}, opts...),
		GroupServiceListMembersProcedure: sessionHandler(GroupServiceListMembersProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.GroupRequest) (*api.List[api.Member], error) {
				members, err := svc.ListMembers(ctx, sess, req.GroupID)
				if err != nil {
					return nil, err
				}
				out := api.NewList(api.FromMembers(members))
				return &out, nil
			}, opts...),
		GroupServiceAddMemberProcedure: sessionHandler(GroupServiceAddMemberProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.AddMemberRequest) (*api.Member, error) {
				m, err := svc.AddMember(ctx, sess, req.GroupID, *req)
				if err != nil {
					return nil, err
				}
				out := api.FromMember(m)
				return &out, nil
			}, opts...),
		GroupServiceRemoveMemberProcedure: sessionHandler(GroupServiceRemoveMemberProcedure, connect.CodeFailedPrecondition,
			func(ctx context.Context, sess auth.Session, req *api.RemoveMemberRequest) (*api.RemoveMemberResponse, error) {
				if err := svc.RemoveMember(ctx, sess, req.GroupID, req.UserID); err != nil {
					return nil, err
				}
				return &api.RemoveMemberResponse{}, nil
			}, opts...),
		GroupServiceLogExpenseProcedure: sessionHandler(GroupServiceLogExpenseProcedure, connect.CodeFailedPrecondition,
			func(ctx context.Context, sess auth.Session, req *api.LogExpenseRequest) (*api.Expense, error) {
				e, err := svc.LogExpense(ctx, sess, req.GroupID, *req)
				if err != nil {
					return nil, err
				}
				out := api.FromExpense(e)
				return &out, nil
			}, opts...),
		GroupServiceListExpensesProcedure: sessionHandler(GroupServiceListExpensesProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.GroupRequest) (*api.List[api.Expense], error) {
				expenses, err := svc.ListExpenses(ctx, sess, req.GroupID)
				if err != nil {
					return nil, err
				}
				out := api.NewList(api.FromExpenses(expenses))
				return &out, nil
			}, opts...),
		GroupServiceRecordPaymentProcedure: sessionHandler(GroupServiceRecordPaymentProcedure, connect.CodeFailedPrecondition,
			func(ctx context.Context, sess auth.Session, req *api.RecordPaymentRequest) (*api.Payment, error) {
				p, err := svc.RecordPayment(ctx, sess, req.GroupID, *req)
				if err != nil {
					return nil, err
				}
				out := api.FromPayment(p)
				return &out, nil
			}, opts...),
		GroupServiceListPaymentsProcedure: sessionHandler(GroupServiceListPaymentsProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.GroupRequest) (*api.List[api.Payment], error) {
				payments, err := svc.ListPayments(ctx, sess, req.GroupID)
				if err != nil {
					return nil, err
				}
				out := api.NewList(api.FromPayments(payments))
				return &out, nil
			}, opts...),
		GroupServiceGetBalancesProcedure: sessionHandler(GroupServiceGetBalancesProcedure, exists,
			func(ctx context.Context, sess auth.Session, req *api.GroupRequest) (*api.Balances, error) {
				b, err := svc.GetBalances(ctx, sess, req.GroupID)
				if err != nil {
					return nil, err
				}
				out := api.FromBalances(b.Net, b.Suggestions)
				return &out, nil
			}, opts...),
	}
	return "/" + GroupServiceName + "/", procedureMux(procedures)
}

func procedureMux(procedures map[string]*connect.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := procedures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/pkg/api"
)

// Handler serves the REST endpoints on top of the services.
type Handler struct {
	groups *service.GroupService
	auth   *service.AuthService
	logger *slog.Logger
}

func NewHandler(groups *service.GroupService, authService *service.AuthService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{groups: groups, auth: authService, logger: logger}
}

// session is always present behind middleware.Authenticate.
func session(r *http.Request) auth.Session {
	sess, _ := auth.SessionFrom(r.Context())
	return sess
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, http.StatusOK, api.Health{OK: true})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, token, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusCreated, api.AuthResponse{Token: token, User: api.FromUser(user)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, token, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.AuthResponse{Token: token, User: api.FromUser(user)})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.MeResponse{User: api.FromUser(user)})
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context(), session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.NewList(api.FromGroups(groups)))
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGroupRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	group, err := h.groups.CreateGroup(r.Context(), session(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusCreated, api.FromGroup(group), "/api/groups/"+group.ID)
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), session(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.FromGroup(group))
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.groups.ListMembers(r.Context(), session(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.NewList(api.FromMembers(members)))
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req api.AddMemberRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	member, err := h.groups.AddMember(r.Context(), session(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusCreated, api.FromMember(member))
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.groups.RemoveMember(r.Context(), session(r), vars["id"], vars["userId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LogExpense(w http.ResponseWriter, r *http.Request) {
	var req api.LogExpenseRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	expense, err := h.groups.LogExpense(r.Context(), session(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusCreated, api.FromExpense(expense))
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.groups.ListExpenses(r.Context(), session(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.NewList(api.FromExpenses(expenses)))
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req api.RecordPaymentRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	payment, err := h.groups.RecordPayment(r.Context(), session(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusCreated, api.FromPayment(payment))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.groups.ListPayments(r.Context(), session(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.NewList(api.FromPayments(payments)))
}

// GetBalances computes net balances and settlement suggestions on every
// request.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.groups.GetBalances(r.Context(), session(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, api.FromBalances(balances.Net, balances.Suggestions))
}

package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/dukerupert/chorify/internal/auth"
	"github.com/dukerupert/chorify/internal/serializer"
	"github.com/dukerupert/chorify/internal/store"
)

// adminConfig declares how a collection is exposed on the admin endpoints:
// default ordering, the columns free-text search runs over, and which query
// parameters filter on which boolean columns.
type adminConfig struct {
	ordering     []string
	searchParam  string
	searchFields []string
	boolFilters  map[string]string
}

var accountAdmin = adminConfig{
	ordering:     []string{"id ASC"},
	searchParam:  "search",
	searchFields: []string{"email"},
	boolFilters: map[string]string{
		"is_active": "is_active",
		"is_staff":  "is_admin",
		"is_admin":  "is_admin",
	},
}

func (c adminConfig) query(params url.Values) (store.AccountQuery, error) {
	q := store.AccountQuery{
		Search:       strings.TrimSpace(params.Get(c.searchParam)),
		SearchFields: c.searchFields,
		OrderBy:      c.ordering,
	}
	for param, column := range c.boolFilters {
		raw := params.Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return store.AccountQuery{}, apperr.Invalid(param, "must be true or false")
		}
		if q.Equals == nil {
			q.Equals = map[string]any{}
		}
		q.Equals[column] = boolInt(v)
	}
	return q, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Disconnector drops the live connections of an account.
type Disconnector interface {
	Disconnect(accountID int64) int
}

// AccountHandler serves the administrator-only /users/ endpoints.
type AccountHandler struct {
	accounts *store.AccountStore
	svc      *auth.Service
	conns    Disconnector
	logger   *slog.Logger
}

func NewAccountHandler(accounts *store.AccountStore, svc *auth.Service, conns Disconnector, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, svc: svc, conns: conns, logger: logger.With("component", "accounts")}
}

// disconnect closes the account's websockets once it can no longer
// authenticate.
func (h *AccountHandler) disconnect(accountID int64) {
	if h.conns == nil {
		return
	}
	if n := h.conns.Disconnect(accountID); n > 0 {
		h.logger.Info("closed websocket connections", "account_id", accountID, "count", n)
	}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := accountAdmin.query(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	accounts, err := h.accounts.List(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]serializer.User, 0, len(accounts))
	for i := range accounts {
		out = append(out, serializer.NewUser(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := serializer.DecodeAccountCreate(requestBody(w, r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	account, err := h.svc.CreateAccountWithStatus(r.Context(), in.Email, in.Password, in.IsActive, in.IsAdmin)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("account created", "account_id", account.ID, "by", auth.AccountID(r.Context()))
	writeJSON(w, http.StatusCreated, serializer.NewUser(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, serializer.NewUser(account))
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *AccountHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := serializer.DecodeAccountUpdate(requestBody(w, r), partial)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	account, err := h.accounts.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !account.IsActive {
		h.disconnect(account.ID)
	}
	writeJSON(w, http.StatusOK, serializer.NewUser(account))
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.disconnect(id)
	h.logger.Info("account deleted", "account_id", id, "by", auth.AccountID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

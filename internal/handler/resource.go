package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorify/internal/auth"
	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/store"
	"github.com/dukerupert/chorify/internal/websocket"
)

// Notifier pushes change notifications to an account's live connections.
type Notifier interface {
	Publish(accountID int64, msg websocket.Message)
}

// ResourceHandler serves the list/detail endpoints of one owner-scoped
// resource. The owner is always the authenticated caller; any owner sent in
// a payload is ignored by the decoders.
type ResourceHandler[T, C, U any] struct {
	entity       string
	store        store.OwnedStore[T, C, U]
	decodeCreate func(io.Reader) (C, error)
	decodeUpdate func(r io.Reader, partial bool) (U, error)
	present      func(*T, *model.Account) any
	idOf         func(*T) int64
	notifier     Notifier
	logger       *slog.Logger
}

func (h *ResourceHandler[T, C, U]) notify(accountID int64, action string, id int64) {
	if h.notifier != nil {
		h.notifier.Publish(accountID, websocket.NewMessage(h.entity, action, id, nil))
	}
}

func (h *ResourceHandler[T, C, U]) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	records, err := h.store.List(r.Context(), ac.AccountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]any, 0, len(records))
	for i := range records {
		out = append(out, h.present(&records[i], ac.Account))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ResourceHandler[T, C, U]) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	in, err := h.decodeCreate(requestBody(w, r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rec, err := h.store.Create(r.Context(), ac.AccountID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.notify(ac.AccountID, "created", h.idOf(rec))
	writeJSON(w, http.StatusCreated, h.present(rec, ac.Account))
}

func (h *ResourceHandler[T, C, U]) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rec, err := h.store.Get(r.Context(), ac.AccountID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present(rec, ac.Account))
}

// Update handles PUT.
func (h *ResourceHandler[T, C, U]) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// Patch handles PATCH.
func (h *ResourceHandler[T, C, U]) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *ResourceHandler[T, C, U]) update(w http.ResponseWriter, r *http.Request, partial bool) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := h.decodeUpdate(requestBody(w, r), partial)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rec, err := h.store.Update(r.Context(), ac.AccountID, id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.notify(ac.AccountID, "updated", id)
	writeJSON(w, http.StatusOK, h.present(rec, ac.Account))
}

func (h *ResourceHandler[T, C, U]) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.store.Delete(r.Context(), ac.AccountID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.notify(ac.AccountID, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorify/internal/auth"
	"github.com/dukerupert/chorify/internal/serializer"
)

type tokenResponse struct {
	Key string `json:"key"`
}

type AuthHandler struct {
	svc    *auth.Service
	logger *slog.Logger
}

func NewAuthHandler(svc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger.With("component", "auth_handler")}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	reg, err := serializer.DecodeRegistration(requestBody(w, r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	_, token, err := h.svc.Register(r.Context(), reg.Email, reg.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Key: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := serializer.DecodeCredentials(requestBody(w, r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	_, token, err := h.svc.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Key: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.svc.Logout(r.Context(), ac.SessionID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "successfully logged out"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, serializer.NewUser(ac.Account))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pc, err := serializer.DecodePasswordChange(requestBody(w, r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), ac, pc.OldPassword, pc.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "new password has been saved"})
}

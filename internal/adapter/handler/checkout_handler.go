package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/velora/checkout_hold/internal/core/domain"
	"github.com/velora/checkout_hold/internal/core/services"
)

type CheckoutHandler struct {
	svc *services.CheckoutService
}

func NewCheckoutHandler(svc *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req services.StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid json body"})
		return
	}

	resp, err := h.svc.StartCheckout(r.Context(), req)

	if err != nil {
		errMsg := err.Error()

		if errors.Is(err, domain.ErrInsufficientStock) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": errMsg})
		} else if strings.Contains(errMsg, "invalid") {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": errMsg})
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
		}

		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, `{"error": "method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid session id"})
		return
	}

	resp, err := h.svc.GetState(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			w.WriteHeader(http.StatusNotFound)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	json.NewEncoder(w).Encode(resp)
}

type sessionActionRequest struct {
	SessionID string `json:"session_id"`
}

func (h *CheckoutHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.svc.Pause)
}

func (h *CheckoutHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.svc.Resume)
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.svc.Confirm)
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.svc.Cancel)
}

func (h *CheckoutHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, sessionID uuid.UUID) error) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req sessionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid json body"})
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid session id"})
		return
	}

	if err := action(r.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrSessionNotLive):
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
		}
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/passion-dev-group/guardian/internal/middleware"
	"github.com/passion-dev-group/guardian/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes. Unknown errors are
// internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotCircleAdmin), errors.Is(err, service.ErrNotSiteAdmin):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCircleNotPending),
		errors.Is(err, service.ErrNoAuthorizedMembers),
		errors.Is(err, service.ErrNoEnrollments):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// StartCircle transitions a circle to active and enrolls authorized members
func (h *Handler) StartCircle(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		CircleID string `json:"circle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CircleID == "" {
		respondError(w, http.StatusBadRequest, "circle_id is required")
		return
	}

	result, err := h.svc.StartCircle(r.Context(), req.CircleID, callerID)
	if err != nil {
		// A failed start still carries per-member detail when available.
		if result != nil && errors.Is(err, service.ErrNoEnrollments) {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  err.Error(),
				"result": result,
			})
			return
		}
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DailyCheck runs the cycle monitor over all circles
func (h *Handler) DailyCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunDailyCheck(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AdminRecurring lists or cancels recurring contributions
func (h *Handler) AdminRecurring(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Action         string `json:"action"`
		CircleID       string `json:"circle_id"`
		ContributionID string `json:"contribution_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "list":
		views, err := h.svc.ListRecurringContributions(r.Context(), callerID, req.CircleID)
		if err != nil {
			h.fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"contributions": views})
	case "cancel":
		if req.ContributionID == "" {
			respondError(w, http.StatusBadRequest, "contribution_id is required")
			return
		}
		if err := h.svc.CancelRecurringContribution(r.Context(), callerID, req.ContributionID); err != nil {
			h.fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		respondError(w, http.StatusBadRequest, "action must be list or cancel")
	}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

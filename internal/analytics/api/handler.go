package analytics_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-approvals/internal/analytics"
	"ms-approvals/internal/auth"
	"ms-approvals/internal/logger"
	"ms-approvals/internal/models"
	"ms-approvals/internal/utils"

	"github.com/go-chi/chi/v5"
)

type SummaryService interface {
	GetApprovalSummary(ctx context.Context, eventID string) (*models.ApprovalSummary, error)
}

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service SummaryService
	Logger  *logger.Logger
	admins  map[string]struct{}
}

// NewHandler creates a new analytics handler. Only the listed subjects may read summaries.
func NewHandler(service SummaryService, logger *logger.Logger, adminIDs []string) *Handler {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Handler{
		Service: service,
		Logger:  logger,
		admins:  admins,
	}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/events/{eventId}/approvals/summary", h.GetApprovalSummary)
	})
}

func (h *Handler) GetApprovalSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if !h.isAdmin(userID) {
		h.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("user %q requested approval summary", userID))
		sendJSONResponse(w, http.StatusForbidden,
			utils.ErrorResponse("FORBIDDEN", "Administrator access required", "not an administrator"))
		return
	}

	eventID := chi.URLParam(r, "eventId")
	summary, err := h.Service.GetApprovalSummary(r.Context(), eventID)
	if errors.Is(err, analytics.ErrEventNotFound) {
		sendJSONResponse(w, http.StatusNotFound,
			utils.ErrorResponse("NOT_FOUND", "Event not found", eventID))
		return
	}
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("summary for event %s failed: %v", eventID, err))
		sendJSONResponse(w, http.StatusInternalServerError,
			utils.ErrorResponse("INTERNAL_ERROR", "Failed to load approval summary", "INTERNAL_ERROR"))
		return
	}

	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Approval summary retrieved", summary))
}

func (h *Handler) isAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	_, ok := h.admins[userID]
	return ok
}

// sendJSONResponse is a helper function to send JSON responses
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

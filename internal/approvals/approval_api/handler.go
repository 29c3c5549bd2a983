package approval_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-approvals/internal/approvals/service"
	"ms-approvals/internal/auth"
	"ms-approvals/internal/logger"
	"ms-approvals/internal/models"
	"ms-approvals/internal/utils"

	"github.com/go-chi/chi/v5"
)

// maxRequestBodyBytes leaves room for a full remarks field in multi-byte runes
const maxRequestBodyBytes = 16 << 10

type ApprovalService interface {
	GetGuardianEventsView(ctx context.Context, guardianID string) (*models.GuardianEventsView, error)
	GetApproval(ctx context.Context, approvalID, guardianID string) (*models.Approval, error)
	Respond(ctx context.Context, approvalID, guardianID, decision string, remarks *string) error
	RespondAll(ctx context.Context, eventID, guardianID, decision string, remarks *string) (int, error)
}

type Handler struct {
	Service ApprovalService
	Logger  *logger.Logger
}

func NewHandler(svc ApprovalService, log *logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// RegisterRoutes mounts the guardian endpoints; the caller applies auth.Middleware
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/guardian/events", h.GetGuardianEvents)
	r.Route("/api/approvals/{approvalId}", func(r chi.Router) {
		r.Get("/", h.GetApproval)
		r.Post("/respond", h.Respond)
	})
	r.Post("/api/events/{eventId}/respond-all", h.RespondAll)
}

func (h *Handler) GetGuardianEvents(w http.ResponseWriter, r *http.Request) {
	guardianID, ok := h.guardian(w, r)
	if !ok {
		return
	}

	view, err := h.Service.GetGuardianEventsView(r.Context(), guardianID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Guardian events retrieved", view))
}

func (h *Handler) GetApproval(w http.ResponseWriter, r *http.Request) {
	guardianID, ok := h.guardian(w, r)
	if !ok {
		return
	}

	approval, err := h.Service.GetApproval(r.Context(), chi.URLParam(r, "approvalId"), guardianID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Approval retrieved", approval))
}

// Respond → POST /api/approvals/{approvalId}/respond {"decision": "APPROVED", "remarks": "..."}
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	guardianID, ok := h.guardian(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	approvalID := chi.URLParam(r, "approvalId")
	if err := h.Service.Respond(r.Context(), approvalID, guardianID, req.Decision, req.Remarks); err != nil {
		h.writeError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Response recorded", nil))
}

// RespondAll → POST /api/events/{eventId}/respond-all, same body as Respond
func (h *Handler) RespondAll(w http.ResponseWriter, r *http.Request) {
	guardianID, ok := h.guardian(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventId")
	count, err := h.Service.RespondAll(r.Context(), eventID, guardianID, req.Decision, req.Remarks)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse(
		fmt.Sprintf("%d approvals updated", count), models.BulkResponse{Count: count}))
}

func (h *Handler) guardian(w http.ResponseWriter, r *http.Request) (string, bool) {
	guardianID := auth.UserID(r.Context())
	if guardianID == "" {
		h.Logger.LogSecurity("UNAUTHENTICATED", fmt.Sprintf("%s %s without guardian identity", r.Method, r.URL.Path))
		sendJSONResponse(w, http.StatusUnauthorized,
			utils.ErrorResponse("UNAUTHORIZED", "Authentication required", "missing guardian identity"))
		return "", false
	}
	return guardianID, true
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (models.ApprovalRequest, bool) {
	var req models.ApprovalRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message := "Invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = "Request body too large"
		}
		h.Logger.Warn("API", fmt.Sprintf("%s %s undecodable body: %v", r.Method, r.URL.Path, err))
		sendJSONResponse(w, http.StatusBadRequest,
			utils.ErrorResponse(service.CodeValidation, message, service.CodeValidation))
		return req, false
	}
	return req, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.ErrorCode(err)
	status := StatusFor(code)
	if status == http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s %s failed: %v", r.Method, r.URL.Path, err))
	} else {
		h.Logger.Warn("API", fmt.Sprintf("%s %s rejected: %d %s", r.Method, r.URL.Path, status, code))
	}
	sendJSONResponse(w, status, utils.ErrorResponse(code, service.UserMessage(err), code))
}

// StatusFor maps a service error code to its HTTP status
func StatusFor(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeDeadlinePassed, service.CodeConflict:
		return http.StatusConflict
	case service.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

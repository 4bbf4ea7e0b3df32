package handler

import (
	"net/http"
	"time"

	"maintops_backend/internal/morninggate/service"
	"maintops_backend/internal/morninggate/transport"
	"maintops_backend/platform/httpkit"
	"maintops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// CheckGate returns the caller's gate state. Technicians see their own gate;
// coordinating roles may pass ?technicianId= to inspect another's.
func (h *Handler) CheckGate(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	technicianID, ok := h.resolveTechnician(c, identity)
	if !ok {
		return
	}

	status, err := h.svc.CheckGate(c.Request.Context(), technicianID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "gate check failed", nil)
		return
	}
	httpkit.OK(c, status)
}

func (h *Handler) SubmitExplanation(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid assignment id", nil)
		return
	}

	var req transport.ExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var newDate *time.Time
	if req.NewDate != nil {
		d, err := time.Parse("2006-01-02", *req.NewDate)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid new date", nil)
			return
		}
		newDate = &d
	}

	res, err := h.svc.SubmitExplanation(c.Request.Context(), service.SubmitInput{
		TechnicianID: identity.UserID(),
		AssignmentID: assignmentID,
		Reason:       req.Reason,
		Detail:       req.Detail,
		NewDate:      newDate,
	})
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "explanation submission failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) resolveTechnician(c *gin.Context, identity httpkit.Identity) (uuid.UUID, bool) {
	if identity.Role() == "technician" {
		return identity.UserID(), true
	}

	raw := c.Query("technicianId")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid technician id", nil)
		return uuid.Nil, false
	}
	return id, true
}

package autosend

import (
	"net/http"

	"maintops_backend/platform/apperr"
	"maintops_backend/platform/httpkit"
	"maintops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EditRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

type Handler struct {
	svc      *Service
	validate *validator.Validator
}

func NewHandler(svc *Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) Pending(c *gin.Context) {
	httpkit.OK(c, h.svc.Pending())
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := parsePendingID(c)
	if !ok {
		return
	}
	if err := h.svc.Confirm(c.Request.Context(), id); err != nil {
		respondPendingError(c, err, "confirm failed")
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := parsePendingID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		respondPendingError(c, err, "cancel failed")
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}

func (h *Handler) Edit(c *gin.Context) {
	id, ok := parsePendingID(c)
	if !ok {
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	msg, err := h.svc.Edit(c.Request.Context(), id, req.Content)
	if err != nil {
		respondPendingError(c, err, "edit failed")
		return
	}
	httpkit.OK(c, msg)
}

func (h *Handler) Resume(c *gin.Context) {
	id, ok := parsePendingID(c)
	if !ok {
		return
	}

	msg, err := h.svc.Resume(c.Request.Context(), id)
	if err != nil {
		respondPendingError(c, err, "resume failed")
		return
	}
	httpkit.OK(c, msg)
}

func parsePendingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid pending message id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func respondPendingError(c *gin.Context, err error, fallback string) {
	if apperr.Is(err, apperr.KindNotFound) {
		httpkit.Error(c, http.StatusNotFound, "no pending message", nil)
		return
	}
	httpkit.Error(c, http.StatusInternalServerError, fallback, nil)
}

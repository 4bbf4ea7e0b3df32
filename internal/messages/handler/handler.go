package handler

import (
	"net/http"

	"maintops_backend/internal/messages/repository"
	"maintops_backend/internal/messages/service"
	"maintops_backend/internal/messages/transport"
	"maintops_backend/platform/apperr"
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

func (h *Handler) Thread(c *gin.Context) {
	workOrderID, ok := parseID(c, "work order")
	if !ok {
		return
	}

	msgs, err := h.svc.Thread(c.Request.Context(), workOrderID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load messages", nil)
		return
	}

	out := make([]transport.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Send(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	workOrderID, ok := parseID(c, "work order")
	if !ok {
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), service.SendInput{
		WorkOrderID:       workOrderID,
		SenderType:        senderTypeFor(identity.Role()),
		SenderName:        identity.Name(),
		Content:           req.Content,
		TranslatedContent: req.TranslatedContent,
		RecipientPhone:    req.RecipientPhone,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to send message", nil)
		return
	}
	httpkit.OK(c, toMessageResponse(msg))
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "message")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), id); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			httpkit.Error(c, http.StatusNotFound, "message not found", nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "failed to mark message read", nil)
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	workOrderID, ok := parseID(c, "work order")
	if !ok {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), workOrderID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to count unread messages", nil)
		return
	}
	httpkit.OK(c, transport.UnreadCountResponse{UnreadCount: count})
}

// senderTypeFor buckets the authenticated role into a message sender type.
// Coordinating roles all write as "coordinator".
func senderTypeFor(role string) string {
	switch role {
	case "technician":
		return service.SenderTechnician
	case "tenant":
		return service.SenderTenant
	default:
		return service.SenderCoordinator
	}
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+what+" id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:                m.ID.String(),
		WorkOrderID:       m.WorkOrderID.String(),
		SenderType:        m.SenderType,
		SenderName:        m.SenderName,
		Content:           m.Content,
		TranslatedContent: m.TranslatedContent,
		RecipientPhone:    m.RecipientPhone,
		ReadAt:            m.ReadAt,
		CreatedAt:         m.CreatedAt,
	}
}

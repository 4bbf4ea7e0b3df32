package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"maintops_backend/internal/workorders/repository"
	"maintops_backend/internal/workorders/service"
	"maintops_backend/internal/workorders/store"
	"maintops_backend/internal/workorders/transport"
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

func (h *Handler) List(c *gin.Context) {
	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	workOrders, err := h.svc.ListWorkOrders(c.Request.Context(), status)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list work orders", nil)
		return
	}

	out := make([]transport.WorkOrderResponse, 0, len(workOrders))
	for _, wo := range workOrders {
		out = append(out, toWorkOrderResponse(wo))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	wo, err := h.svc.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, "work order not found", nil)
		return
	}
	httpkit.OK(c, toWorkOrderResponse(wo))
}

func (h *Handler) Assign(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	technicianID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid technician id", nil)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}

	res, err := h.svc.Assign(c.Request.Context(), store.AssignParams{
		WorkOrderID:  id,
		TechnicianID: technicianID,
		Date:         date,
		TimeWindow:   req.TimeWindow,
		AssignedBy:   identity.Name(),
	})
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "assignment failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) MarkReadyForReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ReadyForReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	technicianID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid technician id", nil)
		return
	}

	res, err := h.svc.MarkReadyForReview(c.Request.Context(), store.ReadyParams{
		WorkOrderID:  id,
		TechnicianID: technicianID,
		Notes:        req.Notes,
	})
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "transition failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) Complete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	res, err := h.svc.Complete(c.Request.Context(), store.CompleteParams{
		WorkOrderID:  id,
		ApprovedBy:   identity.UserID(),
		ApproverRole: identity.Role(),
		Notes:        req.Notes,
	})
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "completion failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) Reject(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.Reject(c.Request.Context(), id, identity.Name(), req.Reason)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "rejection failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) RecordOverride(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	technicianID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid technician id", nil)
		return
	}

	var req transport.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.RecordOverride(c.Request.Context(), store.OverrideParams{
		TechnicianID: technicianID,
		OverrideBy:   identity.Name(),
		Reason:       req.Reason,
		Detail:       req.Detail,
	})
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "override failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) Classify(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	classification, err := h.svc.Classify(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			httpkit.Error(c, http.StatusNotFound, "work order not found", nil)
			return
		}
		httpkit.Error(c, http.StatusBadGateway, "classification failed", nil)
		return
	}
	httpkit.OK(c, classification)
}

func (h *Handler) GetActiveAssignment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	assignment, err := h.svc.GetActiveAssignment(c.Request.Context(), id)
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, "no active assignment", nil)
		return
	}
	httpkit.OK(c, toAssignmentResponse(assignment))
}

func (h *Handler) ListAssignmentHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	assignments, err := h.svc.ListAssignmentHistory(c.Request.Context(), id)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list assignments", nil)
		return
	}

	out := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	httpkit.OK(c, out)
}

func (h *Handler) ListTechnicians(c *gin.Context) {
	technicians, err := h.svc.ListTechnicians(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list technicians", nil)
		return
	}

	out := make([]transport.TechnicianResponse, 0, len(technicians))
	for _, t := range technicians {
		out = append(out, transport.TechnicianResponse{
			ID:       t.ID.String(),
			FullName: t.FullName,
			Phone:    t.Phone,
			Status:   t.Status,
			Skills:   t.Skills,
		})
	}
	httpkit.OK(c, out)
}

func (h *Handler) ListOverrideHistory(c *gin.Context) {
	technicianID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid technician id", nil)
		return
	}

	records, err := h.svc.ListOverrideHistory(c.Request.Context(), technicianID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list overrides", nil)
		return
	}

	out := make([]transport.OverrideRecordResponse, 0, len(records))
	for _, rec := range records {
		displaced := make([]string, 0, len(rec.DisplacedWorkOrders))
		for _, id := range rec.DisplacedWorkOrders {
			displaced = append(displaced, id.String())
		}
		out = append(out, transport.OverrideRecordResponse{
			ID:                  rec.ID.String(),
			TechnicianID:        rec.TechnicianID.String(),
			OverrideBy:          rec.OverrideBy,
			Reason:              rec.Reason,
			Detail:              rec.Detail,
			DisplacedWorkOrders: displaced,
			CreatedAt:           rec.CreatedAt,
		})
	}
	httpkit.OK(c, out)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid work order id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toWorkOrderResponse(wo repository.WorkOrder) transport.WorkOrderResponse {
	return transport.WorkOrderResponse{
		ID:             wo.ID.String(),
		Title:          wo.Title,
		Description:    wo.Description,
		Property:       wo.Property,
		Unit:           wo.Unit,
		ResidentName:   wo.ResidentName,
		Channel:        wo.Channel,
		Priority:       wo.Priority,
		Status:         wo.Status,
		Classification: json.RawMessage(wo.Classification),
		CreatedAt:      wo.CreatedAt,
		UpdatedAt:      wo.UpdatedAt,
		CompletedAt:    wo.CompletedAt,
	}
}

func toAssignmentResponse(a repository.Assignment) transport.AssignmentResponse {
	return transport.AssignmentResponse{
		ID:            a.ID.String(),
		WorkOrderID:   a.WorkOrderID.String(),
		TechnicianID:  a.TechnicianID.String(),
		Status:        a.Status,
		ScheduledDate: a.ScheduledDate,
		TimeWindow:    a.TimeWindow,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

package handler

import (
	"net/http"

	"maintops_backend/internal/classifier"
	"maintops_backend/internal/duplicates/repository"
	"maintops_backend/internal/duplicates/service"
	"maintops_backend/internal/duplicates/transport"
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
	candidates, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list duplicate candidates", nil)
		return
	}

	out := make([]transport.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, toCandidateResponse(candidate))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Analyze(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	analysis, err := h.svc.Analyze(c.Request.Context(), id)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "analysis failed", nil)
		return
	}
	httpkit.OK(c, analysis)
}

func (h *Handler) BulkAnalyze(c *gin.Context) {
	results, err := h.svc.BulkAnalyze(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "bulk analysis failed", nil)
		return
	}

	out := make(map[string]classifier.PairAnalysis, len(results))
	for id, analysis := range results {
		out[id.String()] = analysis
	}
	httpkit.OK(c, out)
}

func (h *Handler) Merge(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.Merge(c.Request.Context(), id, identity.Name(), req.MergeNote)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "merge failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) Dismiss(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	res, err := h.svc.Dismiss(c.Request.Context(), id, identity.Name())
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "dismiss failed", nil)
		return
	}
	httpkit.OK(c, res)
}

func (h *Handler) BulkMerge(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	ids, ok := h.parseBulkIDs(c)
	if !ok {
		return
	}

	outcome, err := h.svc.BulkMerge(c.Request.Context(), ids, identity.Name())
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "bulk merge failed", nil)
		return
	}
	httpkit.OK(c, outcome)
}

func (h *Handler) BulkDismiss(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	ids, ok := h.parseBulkIDs(c)
	if !ok {
		return
	}

	outcome, err := h.svc.BulkDismiss(c.Request.Context(), ids, identity.Name())
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "bulk dismiss failed", nil)
		return
	}
	httpkit.OK(c, outcome)
}

func (h *Handler) parseBulkIDs(c *gin.Context) ([]uuid.UUID, bool) {
	var req transport.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return nil, false
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid candidate id", nil)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid candidate id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toCandidateResponse(candidate repository.Candidate) transport.CandidateResponse {
	resp := transport.CandidateResponse{
		ID:              candidate.ID.String(),
		ConfidenceScore: candidate.ConfidenceScore,
		DetectionReason: candidate.DetectionReason,
		Primary:         toWorkOrderSummary(candidate.Primary),
		Duplicate:       toWorkOrderSummary(candidate.Duplicate),
		Recommendation:  candidate.Recommendation,
		Confidence:      candidate.Confidence,
		Reasoning:       candidate.Reasoning,
		KeyDifferences:  candidate.KeyDifferences,
		MergeNote:       candidate.MergeNote,
		AnalyzedAt:      candidate.AnalyzedAt,
		CreatedAt:       candidate.CreatedAt,
	}
	if candidate.Recommendation != nil && candidate.Confidence != nil {
		bucket := string(service.ScoreBucket(
			classifier.Recommendation(*candidate.Recommendation), *candidate.Confidence))
		resp.Bucket = &bucket
	}
	return resp
}

func toWorkOrderSummary(wo repository.WorkOrderSummary) transport.WorkOrderSummaryResponse {
	return transport.WorkOrderSummaryResponse{
		ID:          wo.ID.String(),
		CreatedAt:   wo.CreatedAt,
		Title:       wo.Title,
		Description: wo.Description,
		Property:    wo.Property,
		Unit:        wo.Unit,
		Status:      wo.Status,
		Priority:    wo.Priority,
	}
}

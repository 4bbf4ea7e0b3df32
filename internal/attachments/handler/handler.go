package handler

import (
	"net/http"

	"maintops_backend/internal/attachments/repository"
	"maintops_backend/internal/attachments/transport"
	"maintops_backend/internal/storage"
	"maintops_backend/platform/apperr"
	"maintops_backend/platform/httpkit"
	"maintops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	repo     *repository.Repository
	store    *storage.Service
	bucket   string
	validate *validator.Validator
}

func New(repo *repository.Repository, store *storage.Service, bucket string, validate *validator.Validator) *Handler {
	return &Handler{repo: repo, store: store, bucket: bucket, validate: validate}
}

// RequestUpload validates the photo, presigns a PUT URL, and records the
// attachment row. The client uploads bytes straight to object storage.
func (h *Handler) RequestUpload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	workOrderID, ok := parseID(c, "work order")
	if !ok {
		return
	}

	var req transport.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	presigned, err := h.store.GenerateUploadURL(c.Request.Context(),
		h.bucket, workOrderID.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		httpkit.Error(c, http.StatusBadGateway, "storage unavailable", nil)
		return
	}

	attachment, err := h.repo.Insert(c.Request.Context(), repository.Attachment{
		WorkOrderID: workOrderID,
		FileKey:     presigned.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  identity.Name(),
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to record attachment", nil)
		return
	}

	httpkit.OK(c, transport.UploadResponse{
		Attachment: toAttachmentResponse(attachment, nil),
		UploadURL:  presigned.URL,
		ExpiresAt:  presigned.ExpiresAt,
	})
}

// List returns the work order's attachments with fresh download links.
func (h *Handler) List(c *gin.Context) {
	workOrderID, ok := parseID(c, "work order")
	if !ok {
		return
	}

	attachments, err := h.repo.ListByWorkOrder(c.Request.Context(), workOrderID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list attachments", nil)
		return
	}

	out := make([]transport.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		var downloadURL *string
		if presigned, err := h.store.GenerateDownloadURL(c.Request.Context(), h.bucket, a.FileKey); err == nil {
			downloadURL = &presigned.URL
		}
		out = append(out, toAttachmentResponse(a, downloadURL))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "attachment")
	if !ok {
		return
	}

	attachment, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, "attachment not found", nil)
		return
	}

	if err := h.store.DeleteObject(c.Request.Context(), h.bucket, attachment.FileKey); err != nil {
		httpkit.Error(c, http.StatusBadGateway, "storage unavailable", nil)
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to delete attachment", nil)
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+what+" id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toAttachmentResponse(a repository.Attachment, downloadURL *string) transport.AttachmentResponse {
	return transport.AttachmentResponse{
		ID:          a.ID.String(),
		WorkOrderID: a.WorkOrderID.String(),
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		UploadedBy:  a.UploadedBy,
		DownloadURL: downloadURL,
		CreatedAt:   a.CreatedAt,
	}
}

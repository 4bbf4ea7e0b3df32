package transport

import "time"

type UploadRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

type AttachmentResponse struct {
	ID          string    `json:"id"`
	WorkOrderID string    `json:"workOrderId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedBy  string    `json:"uploadedBy"`
	DownloadURL *string   `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UploadResponse struct {
	Attachment AttachmentResponse `json:"attachment"`
	UploadURL  string             `json:"uploadUrl"`
	ExpiresAt  time.Time          `json:"expiresAt"`
}

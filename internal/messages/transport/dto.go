package transport

import "time"

type SendMessageRequest struct {
	Content           string  `json:"content" validate:"required,min=1,max=4000"`
	TranslatedContent *string `json:"translatedContent" validate:"omitempty,max=4000"`
	RecipientPhone    *string `json:"recipientPhone" validate:"omitempty,max=32"`
}

type MessageResponse struct {
	ID                string     `json:"id"`
	WorkOrderID       string     `json:"workOrderId"`
	SenderType        string     `json:"senderType"`
	SenderName        string     `json:"senderName"`
	Content           string     `json:"content"`
	TranslatedContent *string    `json:"translatedContent,omitempty"`
	RecipientPhone    *string    `json:"recipientPhone,omitempty"`
	ReadAt            *time.Time `json:"readAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

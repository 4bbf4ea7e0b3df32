package transport

import (
	"encoding/json"
	"time"
)

type AssignRequest struct {
	TechnicianID string  `json:"technicianId" validate:"required,uuid"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	TimeWindow   *string `json:"timeWindow,omitempty"`
}

type ReadyForReviewRequest struct {
	TechnicianID string  `json:"technicianId" validate:"required,uuid"`
	Notes        *string `json:"notes,omitempty"`
}

type CompleteRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type OverrideRequest struct {
	Reason string  `json:"reason" validate:"required,oneof=emergency turnover inspection other"`
	Detail *string `json:"detail,omitempty"`
}

type WorkOrderResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Property       string          `json:"property"`
	Unit           string          `json:"unit"`
	ResidentName   string          `json:"residentName"`
	Channel        string          `json:"channel"`
	Priority       string          `json:"priority"`
	Status         string          `json:"status"`
	Classification json.RawMessage `json:"classification,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

type AssignmentResponse struct {
	ID            string    `json:"id"`
	WorkOrderID   string    `json:"workOrderId"`
	TechnicianID  string    `json:"technicianId"`
	Status        string    `json:"status"`
	ScheduledDate time.Time `json:"scheduledDate"`
	TimeWindow    *string   `json:"timeWindow,omitempty"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type TechnicianResponse struct {
	ID       string   `json:"id"`
	FullName string   `json:"fullName"`
	Phone    string   `json:"phone"`
	Status   string   `json:"status"`
	Skills   []string `json:"skills"`
}

type OverrideRecordResponse struct {
	ID                  string    `json:"id"`
	TechnicianID        string    `json:"technicianId"`
	OverrideBy          string    `json:"overrideBy"`
	Reason              string    `json:"reason"`
	Detail              *string   `json:"detail,omitempty"`
	DisplacedWorkOrders []string  `json:"displacedWorkOrders"`
	CreatedAt           time.Time `json:"createdAt"`
}

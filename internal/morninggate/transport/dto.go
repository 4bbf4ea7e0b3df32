package transport

type ExplanationRequest struct {
	Reason  string  `json:"reason" validate:"required,oneof=parts_needed access_denied tenant_reschedule equipment_issue time_ran_out emergency_redirect other"`
	Detail  *string `json:"detail" validate:"omitempty,max=2000"`
	NewDate *string `json:"newDate" validate:"omitempty,datetime=2006-01-02"`
}

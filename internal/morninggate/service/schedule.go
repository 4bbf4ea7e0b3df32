package service

import (
	"strings"
	"time"
)

// Reasons a technician may give for an incomplete assignment.
const (
	ReasonPartsNeeded       = "parts_needed"
	ReasonAccessDenied      = "access_denied"
	ReasonTenantReschedule  = "tenant_reschedule"
	ReasonEquipmentIssue    = "equipment_issue"
	ReasonTimeRanOut        = "time_ran_out"
	ReasonEmergencyRedirect = "emergency_redirect"
	ReasonOther             = "other"
)

var incompleteReasons = map[string]struct{}{
	ReasonPartsNeeded:       {},
	ReasonAccessDenied:      {},
	ReasonTenantReschedule:  {},
	ReasonEquipmentIssue:    {},
	ReasonTimeRanOut:        {},
	ReasonEmergencyRedirect: {},
	ReasonOther:             {},
}

// IsIncompleteReason reports whether reason is one of the accepted values.
func IsIncompleteReason(reason string) bool {
	_, ok := incompleteReasons[reason]
	return ok
}

var highPriorities = map[string]struct{}{
	"high":      {},
	"emergency": {},
	"urgent":    {},
}

// IsHighPriority reports whether an item must be escalated to a coordinator
// instead of being self-rescheduled.
func IsHighPriority(priority string) bool {
	_, ok := highPriorities[strings.ToLower(priority)]
	return ok
}

var weekdayOnlyPriorities = map[string]struct{}{
	"normal": {},
	"low":    {},
}

// RecommendedDate suggests a reschedule date: tomorrow, advanced past the
// weekend for Normal and Low priority items. Everything else keeps the next
// calendar day.
func RecommendedDate(priority string, now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	if _, ok := weekdayOnlyPriorities[strings.ToLower(priority)]; !ok {
		return d
	}
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Package notification exposes a single port for user-facing coordination
// alerts. Producers only choose a severity and a message; how the alert
// reaches a screen (SSE today) is the backing implementation's concern.
package notification

import (
	"context"

	"maintops_backend/internal/notification/sse"
)

// Severity classifies an alert for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier delivers a user-facing alert. Implementations must not block on
// slow consumers.
type Notifier interface {
	Notify(ctx context.Context, severity Severity, message string)
}

// SSENotifier broadcasts alerts to every connected dashboard client.
type SSENotifier struct {
	sse *sse.Service
}

// NewSSENotifier wires the notifier to an SSE service.
func NewSSENotifier(service *sse.Service) *SSENotifier {
	return &SSENotifier{sse: service}
}

// Notify implements Notifier.
func (n *SSENotifier) Notify(_ context.Context, severity Severity, message string) {
	n.sse.Broadcast(sse.Event{
		Type:     sse.EventToast,
		Severity: string(severity),
		Message:  message,
	})
}

// NopNotifier discards alerts. Useful in tests and the scheduler binary.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Severity, string) {}

var (
	_ Notifier = (*SSENotifier)(nil)
	_ Notifier = NopNotifier{}
)

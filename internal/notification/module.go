package notification

import (
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/notification/sse"
	"maintops_backend/platform/logger"
)

// Module bundles the SSE stream endpoint and the notifier port.
type Module struct {
	SSE      *sse.Service
	Notifier Notifier
}

// NewModule constructs the notification module.
func NewModule(log *logger.Logger) *Module {
	service := sse.New(log)
	return &Module{
		SSE:      service,
		Notifier: NewSSENotifier(service),
	}
}

func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the event stream on the authenticated group.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	rc.Protected.GET("/notifications/stream", m.SSE.Handler())
}

// Close terminates all live SSE connections.
func (m *Module) Close() {
	m.SSE.Close()
}

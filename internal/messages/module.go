// Package messages owns the per-work-order message thread shared by people
// and the auto-send pipeline.
package messages

import (
	"maintops_backend/internal/events"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/messages/handler"
	"maintops_backend/internal/messages/repository"
	"maintops_backend/internal/messages/service"
	"maintops_backend/platform/logger"
	"maintops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	Service *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger, validate *validator.Validator) *Module {
	svc := service.New(repository.New(pool), eventBus, log)
	return &Module{
		Service: svc,
		handler: handler.New(svc, validate),
	}
}

func (m *Module) Name() string { return "messages" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	workOrders := rc.Protected.Group("/work-orders")
	{
		workOrders.GET("/:id/messages", m.handler.Thread)
		workOrders.GET("/:id/messages/unread", m.handler.UnreadCount)
		workOrders.POST("/:id/messages", m.handler.Send)
	}

	rc.Protected.POST("/messages/:id/read", m.handler.MarkRead)
}

// Package morninggate blocks a technician's new schedule until every
// prior-day incomplete assignment has been explained.
package morninggate

import (
	"maintops_backend/internal/events"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/morninggate/handler"
	"maintops_backend/internal/morninggate/repository"
	"maintops_backend/internal/morninggate/service"
	"maintops_backend/internal/notification"
	"maintops_backend/platform/logger"
	"maintops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	Service *service.Service
	handler *handler.Handler
}

func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	notifier notification.Notifier,
	log *logger.Logger,
	validate *validator.Validator,
) *Module {
	svc := service.New(repository.New(pool), eventBus, notifier, log)
	return &Module{
		Service: svc,
		handler: handler.New(svc, validate),
	}
}

func (m *Module) Name() string { return "morninggate" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	gate := rc.Protected.Group("/morning-gate")
	{
		gate.GET("", m.handler.CheckGate)
		gate.POST("/:id/explanation", m.handler.SubmitExplanation)
	}
}

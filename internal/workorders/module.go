// Package workorders owns the work-order lifecycle: assignment, review,
// completion, rejection and emergency override.
package workorders

import (
	"maintops_backend/internal/classifier"
	"maintops_backend/internal/events"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/workorders/handler"
	"maintops_backend/internal/workorders/repository"
	"maintops_backend/internal/workorders/service"
	"maintops_backend/internal/workorders/store"
	"maintops_backend/platform/httpkit"
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
	clf classifier.Classifier,
	eventBus events.Bus,
	notifier notification.Notifier,
	log *logger.Logger,
	validate *validator.Validator,
) *Module {
	repo := repository.New(pool)
	lifecycleStore := store.NewFailover(
		store.NewRPCStore(pool),
		store.NewFallbackStore(pool),
		log,
	)
	svc := service.New(lifecycleStore, repo, clf, eventBus, notifier, log)

	return &Module{
		Service: svc,
		handler: handler.New(svc, validate),
	}
}

func (m *Module) Name() string { return "workorders" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	workOrders := rc.Protected.Group("/work-orders")
	{
		workOrders.GET("", m.handler.List)
		workOrders.GET("/:id", m.handler.Get)
		workOrders.GET("/:id/assignment", m.handler.GetActiveAssignment)
		workOrders.GET("/:id/assignments", m.handler.ListAssignmentHistory)
		workOrders.POST("/:id/assign", m.handler.Assign)
		workOrders.POST("/:id/ready-for-review", m.handler.MarkReadyForReview)
		workOrders.POST("/:id/complete", m.handler.Complete)
		workOrders.POST("/:id/reject", m.handler.Reject)
		workOrders.POST("/:id/classify", m.handler.Classify)
	}

	technicians := rc.Protected.Group("/technicians")
	{
		technicians.GET("", m.handler.ListTechnicians)
		technicians.GET("/:id/overrides", m.handler.ListOverrideHistory)
		technicians.POST("/:id/override",
			httpkit.RequireRole("coordinator", "supervisor", "manager", "admin"),
			m.handler.RecordOverride)
	}
}

package autosend

import (
	"context"
	"time"

	"maintops_backend/internal/changefeed"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/notification/sse"
	"maintops_backend/platform/logger"
	"maintops_backend/platform/validator"

	"github.com/google/uuid"
)

type Config interface {
	GetAutoSendCountdownTicks() int
}

type Module struct {
	Service *Service

	handler *Handler
	feed    *changefeed.Listener
	log     *logger.Logger
}

func NewModule(
	sender MessageSender,
	push *sse.Service,
	feed *changefeed.Listener,
	cfg Config,
	log *logger.Logger,
	validate *validator.Validator,
) *Module {
	svc := New(sender, push, log, cfg.GetAutoSendCountdownTicks(), time.Second)
	return &Module{
		Service: svc,
		handler: NewHandler(svc, validate),
		feed:    feed,
		log:     log,
	}
}

func (m *Module) Name() string { return "autosend" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	pending := rc.Protected.Group("/autosend")
	{
		pending.GET("", m.handler.Pending)
		pending.POST("/:id/confirm", m.handler.Confirm)
		pending.POST("/:id/cancel", m.handler.Cancel)
		pending.POST("/:id/edit", m.handler.Edit)
		pending.POST("/:id/resume", m.handler.Resume)
	}
}

// workOrderRow is the slice of the work_orders row image the watcher reads.
type workOrderRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ResidentName string `json:"resident_name"`
	Status       string `json:"status"`
}

// Start subscribes to work-order updates and stages messages on lifecycle
// transitions until ctx is cancelled.
func (m *Module) Start(ctx context.Context) {
	sub := m.feed.Subscribe("work_orders", changefeed.ActionUpdate, nil)
	go func() {
		defer m.feed.Unsubscribe(sub)
		defer m.Service.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.C:
				if !ok {
					return
				}
				m.observe(ctx, change)
			}
		}
	}()
}

func (m *Module) observe(ctx context.Context, change changefeed.Change) {
	var oldRow, newRow workOrderRow
	if err := change.DecodeOld(&oldRow); err != nil {
		m.log.Error("undecodable work order update (old image)", "error", err)
		return
	}
	if err := change.DecodeNew(&newRow); err != nil {
		m.log.Error("undecodable work order update (new image)", "error", err)
		return
	}

	trigger, ok := TriggerFor(oldRow.Status, newRow.Status)
	if !ok {
		return
	}

	id, err := uuid.Parse(newRow.ID)
	if err != nil {
		m.log.Error("work order update with invalid id", "error", err, "id", newRow.ID)
		return
	}

	m.Service.Stage(ctx, StagedWorkOrder{
		ID:           id,
		Title:        newRow.Title,
		ResidentName: newRow.ResidentName,
	}, trigger)
}

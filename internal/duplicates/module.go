// Package duplicates owns the duplicate resolution workflow: a reconciled
// working set of candidate pairs, classifier-backed analysis, and merge or
// dismiss disposition with compensation when the database procedures are
// unreachable.
package duplicates

import (
	"context"
	"time"

	"maintops_backend/internal/changefeed"
	"maintops_backend/internal/classifier"
	"maintops_backend/internal/duplicates/handler"
	"maintops_backend/internal/duplicates/repository"
	"maintops_backend/internal/duplicates/service"
	"maintops_backend/internal/events"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/outbox"
	"maintops_backend/platform/logger"
	"maintops_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

type Config interface {
	GetClassifierPace() time.Duration
	GetAutoMergeThreshold() int
}

type Module struct {
	Service *service.Service

	handler *handler.Handler
	repo    *repository.Repository
	feed    *changefeed.Listener
	log     *logger.Logger
}

func NewModule(
	pool *pgxpool.Pool,
	clf classifier.Classifier,
	outboxSvc *outbox.Service,
	feed *changefeed.Listener,
	eventBus events.Bus,
	notifier notification.Notifier,
	cfg Config,
	log *logger.Logger,
	validate *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(
		repo,
		clf,
		outboxSvc,
		eventBus,
		notifier,
		log,
		rate.Every(cfg.GetClassifierPace()),
		cfg.GetAutoMergeThreshold(),
	)

	return &Module{
		Service: svc,
		handler: handler.New(svc, validate),
		repo:    repo,
		feed:    feed,
		log:     log,
	}
}

func (m *Module) Name() string { return "duplicates" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	duplicates := rc.Protected.Group("/duplicates")
	{
		duplicates.GET("", m.handler.List)
		duplicates.POST("/analyze-bulk", m.handler.BulkAnalyze)
		duplicates.POST("/bulk-merge", m.handler.BulkMerge)
		duplicates.POST("/bulk-dismiss", m.handler.BulkDismiss)
		duplicates.POST("/:id/analyze", m.handler.Analyze)
		duplicates.POST("/:id/merge", m.handler.Merge)
		duplicates.POST("/:id/dismiss", m.handler.Dismiss)
	}
}

// candidateRow is the subset of the changefeed row image the module reacts to.
type candidateRow struct {
	ID         string  `json:"id"`
	Resolution *string `json:"resolution"`
}

// Start warms the working set and keeps it current from the changefeed until
// ctx is cancelled.
func (m *Module) Start(ctx context.Context) {
	if err := m.Service.WarmView(ctx); err != nil {
		m.log.Error("duplicate working set warm-up failed", "error", err)
	}

	sub := m.feed.Subscribe("duplicate_candidates", changefeed.ActionAll, nil)
	go func() {
		defer m.feed.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.C:
				if !ok {
					return
				}
				m.applyChange(ctx, change)
			}
		}
	}()
}

func (m *Module) applyChange(ctx context.Context, change changefeed.Change) {
	var row candidateRow
	if change.Action == changefeed.ActionDelete {
		if err := change.DecodeOld(&row); err != nil {
			m.log.Error("undecodable candidate delete", "error", err)
			return
		}
	} else if err := change.DecodeNew(&row); err != nil {
		m.log.Error("undecodable candidate change", "error", err)
		return
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		m.log.Error("candidate change with invalid id", "error", err, "id", row.ID)
		return
	}

	// Resolved and deleted rows leave the working set; everything else is
	// re-read so the view carries the joined work-order context.
	if change.Action == changefeed.ActionDelete || row.Resolution != nil {
		m.Service.RemoveCandidate(id)
		return
	}

	candidate, err := m.repo.Get(ctx, id)
	if err != nil {
		m.log.Error("candidate refresh failed", "error", err, "candidate_id", id.String())
		return
	}
	m.Service.ApplyRemoteCandidate(candidate)
}

package scheduler

import (
	"context"
	"time"

	"maintops_backend/internal/outbox"
	"maintops_backend/platform/logger"
)

const (
	dispatchInterval = 30 * time.Second
	// pendingGrace keeps the sweep from re-enqueueing rows whose first
	// enqueue is still in flight.
	pendingGrace  = time.Minute
	dispatchBatch = 100
)

// OutboxDispatcher is the safety net behind direct enqueues: it periodically
// re-enqueues compensation records that remained pending, covering enqueue
// failures and worker downtime.
type OutboxDispatcher struct {
	repo   *outbox.Repository
	client *Client
	log    *logger.Logger
}

func NewOutboxDispatcher(repo *outbox.Repository, client *Client, log *logger.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{repo: repo, client: client, log: log}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.repo == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *OutboxDispatcher) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-pendingGrace)
	records, err := d.repo.ListPending(ctx, cutoff, dispatchBatch)
	if err != nil {
		d.log.Error("compensation sweep query failed", "error", err)
		return
	}

	for _, rec := range records {
		if err := d.client.EnqueueCompensation(ctx, rec.ID); err != nil {
			d.log.Error("compensation re-enqueue failed", "error", err, "outbox_id", rec.ID.String())
		}
	}

	if len(records) > 0 {
		d.log.Info("compensation sweep re-enqueued records", "count", len(records))
	}
}

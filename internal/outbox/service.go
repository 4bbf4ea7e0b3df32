package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

// maxAttempts before a record is parked as failed.
const maxAttempts = 10

// Enqueuer hands a staged record to the task queue for asynchronous replay.
type Enqueuer interface {
	EnqueueCompensation(ctx context.Context, outboxID uuid.UUID) error
}

// ActionHandler replays one compensation action against the server.
type ActionHandler func(ctx context.Context, payload json.RawMessage) error

// Service stages compensation records and dispatches them when the worker
// calls back. Handlers are registered per action by the owning module.
type Service struct {
	repo  *Repository
	queue Enqueuer
	log   *logger.Logger

	mu       sync.RWMutex
	handlers map[string]ActionHandler
}

func NewService(repo *Repository, queue Enqueuer, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		queue:    queue,
		log:      log,
		handlers: make(map[string]ActionHandler),
	}
}

// RegisterHandler binds an action name to its replay function.
func (s *Service) RegisterHandler(action string, h ActionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[action] = h
}

// Stage persists the compensation and hands it to the queue. An enqueue
// failure is tolerated: the sweep dispatcher re-enqueues pending rows.
func (s *Service) Stage(ctx context.Context, action string, payload any) (uuid.UUID, error) {
	id, err := s.repo.Insert(ctx, action, payload)
	if err != nil {
		return uuid.Nil, err
	}

	if s.queue != nil {
		if err := s.queue.EnqueueCompensation(ctx, id); err != nil {
			s.log.Error("compensation enqueue failed, sweep will retry",
				"error", err, "outbox_id", id.String(), "action", action)
		}
	}
	return id, nil
}

// Dispatch replays one record. A handler error is returned to the caller
// (the task queue) so its retry policy applies; the attempt is also
// recorded on the row.
func (s *Service) Dispatch(ctx context.Context, outboxID uuid.UUID) error {
	rec, err := s.repo.Get(ctx, outboxID)
	if err != nil {
		return err
	}
	if rec.Status == StatusDone {
		return nil
	}

	s.mu.RLock()
	handler, ok := s.handlers[rec.Action]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for action %q", rec.Action)
	}

	if err := handler(ctx, rec.Payload); err != nil {
		if recErr := s.repo.RecordFailure(ctx, outboxID, err.Error(), maxAttempts); recErr != nil {
			s.log.Error("failed to record compensation failure", "error", recErr, "outbox_id", outboxID.String())
		}
		return err
	}

	return s.repo.MarkDone(ctx, outboxID)
}

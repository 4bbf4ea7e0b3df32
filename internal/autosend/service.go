// Package autosend watches work-order lifecycle transitions and stages
// outbound tenant messages behind a cancellable, editable countdown. Nothing
// is sent until the countdown expires or a coordinator confirms; cancel
// persists nothing.
package autosend

import (
	"context"
	"sync"
	"time"

	messagerepo "maintops_backend/internal/messages/repository"
	messageservice "maintops_backend/internal/messages/service"
	"maintops_backend/internal/notification/sse"
	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

// MessageSender persists a confirmed auto-send as a message row.
type MessageSender interface {
	Send(ctx context.Context, in messageservice.SendInput) (messagerepo.Message, error)
}

// PendingMessage is one staged notification awaiting confirm/cancel.
type PendingMessage struct {
	ID          uuid.UUID `json:"id"`
	WorkOrderID uuid.UUID `json:"workOrderId"`
	Trigger     Trigger   `json:"trigger"`
	Recipient   string    `json:"recipient"`
	Content     string    `json:"content"`
	TicksLeft   int       `json:"ticksLeft"`
	Paused      bool      `json:"paused"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StagedWorkOrder is the slice of a work-order row the pipeline needs.
type StagedWorkOrder struct {
	ID           uuid.UUID
	Title        string
	ResidentName string
}

type pendingEntry struct {
	msg   PendingMessage
	timer *countdown
	stop  context.CancelFunc
}

type Service struct {
	sender   MessageSender
	push     *sse.Service
	log      *logger.Logger
	ticks    int
	interval time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingEntry
}

func New(sender MessageSender, push *sse.Service, log *logger.Logger, ticks int, interval time.Duration) *Service {
	return &Service{
		sender:   sender,
		push:     push,
		log:      log,
		ticks:    ticks,
		interval: interval,
		pending:  make(map[uuid.UUID]*pendingEntry),
	}
}

// Stage creates a pending message for a trigger and starts its countdown.
// A work order with the same trigger already pending is not staged twice.
func (s *Service) Stage(ctx context.Context, wo StagedWorkOrder, trigger Trigger) (PendingMessage, bool) {
	content, ok := RenderMessage(trigger, wo.ResidentName, wo.Title)
	if !ok {
		return PendingMessage{}, false
	}

	s.mu.Lock()
	for _, e := range s.pending {
		if e.msg.WorkOrderID == wo.ID && e.msg.Trigger == trigger {
			s.mu.Unlock()
			return PendingMessage{}, false
		}
	}

	msg := PendingMessage{
		ID:          uuid.New(),
		WorkOrderID: wo.ID,
		Trigger:     trigger,
		Recipient:   wo.ResidentName,
		Content:     content,
		TicksLeft:   s.ticks,
		CreatedAt:   time.Now(),
	}
	timer := newCountdown(s.ticks, s.interval)
	runCtx, stop := context.WithCancel(ctx)
	entry := &pendingEntry{msg: msg, timer: timer, stop: stop}
	s.pending[msg.ID] = entry
	s.mu.Unlock()

	go timer.run(runCtx,
		func(remaining int) { s.onTick(msg.ID, remaining) },
		func(expired bool) {
			if expired {
				s.autoConfirm(msg.ID)
			}
		},
	)

	s.push.Broadcast(sse.Event{
		Type:        sse.EventAutoSendPending,
		WorkOrderID: msg.WorkOrderID,
		Message:     msg.Content,
		Data:        msg,
	})
	return msg, true
}

// Pending returns the staged messages, newest last.
func (s *Service) Pending() []PendingMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingMessage, 0, len(s.pending))
	for _, e := range s.pending {
		out = append(out, e.msg)
	}
	return out
}

// Confirm sends the pending message immediately.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	entry, ok := s.take(id)
	if !ok {
		return apperr.NotFound("no pending message")
	}
	entry.timer.cancel()
	entry.stop()
	return s.deliver(ctx, entry)
}

// Cancel drops the pending message without persisting anything.
func (s *Service) Cancel(_ context.Context, id uuid.UUID) error {
	entry, ok := s.take(id)
	if !ok {
		return apperr.NotFound("no pending message")
	}
	entry.timer.cancel()
	entry.stop()

	s.push.Broadcast(sse.Event{
		Type:        sse.EventAutoSendCancelled,
		WorkOrderID: entry.msg.WorkOrderID,
		Data:        entry.msg,
	})
	return nil
}

// Edit replaces the content and pauses the countdown until Resume.
func (s *Service) Edit(_ context.Context, id uuid.UUID, content string) (PendingMessage, error) {
	s.mu.Lock()
	entry, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return PendingMessage{}, apperr.NotFound("no pending message")
	}
	entry.msg.Content = content
	entry.msg.Paused = true
	msg := entry.msg
	timer := entry.timer
	s.mu.Unlock()

	timer.pause()
	return msg, nil
}

// Resume restarts a paused countdown.
func (s *Service) Resume(_ context.Context, id uuid.UUID) (PendingMessage, error) {
	s.mu.Lock()
	entry, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return PendingMessage{}, apperr.NotFound("no pending message")
	}
	entry.msg.Paused = false
	msg := entry.msg
	timer := entry.timer
	s.mu.Unlock()

	timer.resume()
	return msg, nil
}

// take removes a pending entry; only one caller wins a confirm/cancel/expiry
// race.
func (s *Service) take(id uuid.UUID) (*pendingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return entry, ok
}

func (s *Service) onTick(id uuid.UUID, remaining int) {
	s.mu.Lock()
	entry, ok := s.pending[id]
	if ok {
		entry.msg.TicksLeft = remaining
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.push.Broadcast(sse.Event{
		Type:        sse.EventAutoSendTick,
		WorkOrderID: entry.msg.WorkOrderID,
		Data:        map[string]any{"id": id, "ticksLeft": remaining},
	})
}

func (s *Service) autoConfirm(id uuid.UUID) {
	entry, ok := s.take(id)
	if !ok {
		return
	}
	if err := s.deliver(context.Background(), entry); err != nil {
		s.log.Error("auto-send delivery failed", "error", err, "work_order_id", entry.msg.WorkOrderID.String())
	}
}

func (s *Service) deliver(ctx context.Context, entry *pendingEntry) error {
	_, err := s.sender.Send(ctx, messageservice.SendInput{
		WorkOrderID: entry.msg.WorkOrderID,
		SenderType:  messageservice.SenderSystem,
		SenderName:  "system",
		Content:     entry.msg.Content,
	})
	if err != nil {
		return err
	}

	s.push.Broadcast(sse.Event{
		Type:        sse.EventAutoSendSent,
		WorkOrderID: entry.msg.WorkOrderID,
		Message:     entry.msg.Content,
		Data:        entry.msg,
	})
	return nil
}

// Close cancels every outstanding countdown.
func (s *Service) Close() {
	s.mu.Lock()
	entries := make([]*pendingEntry, 0, len(s.pending))
	for id, e := range s.pending {
		entries = append(entries, e)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.stop()
	}
}

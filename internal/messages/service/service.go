// Package service owns the per-work-order message thread: who may write,
// phone normalization for outbound recipients, and read receipts.
package service

import (
	"context"
	"fmt"

	"maintops_backend/internal/events"
	"maintops_backend/internal/messages/repository"
	"maintops_backend/platform/logger"
	"maintops_backend/platform/phone"

	"github.com/google/uuid"
)

// Sender types a message row may carry.
const (
	SenderTenant      = "tenant"
	SenderCoordinator = "coordinator"
	SenderTechnician  = "technician"
	SenderSystem      = "system"
)

var senderTypes = map[string]struct{}{
	SenderTenant:      {},
	SenderCoordinator: {},
	SenderTechnician:  {},
	SenderSystem:      {},
}

// IsSenderType reports whether t is an accepted sender type.
func IsSenderType(t string) bool {
	_, ok := senderTypes[t]
	return ok
}

// MessageStore is the persistence surface behind the thread.
type MessageStore interface {
	Insert(ctx context.Context, m repository.Message) (repository.Message, error)
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]repository.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	UnreadCount(ctx context.Context, workOrderID uuid.UUID) (int, error)
}

// SendInput is one outbound message.
type SendInput struct {
	WorkOrderID       uuid.UUID
	SenderType        string
	SenderName        string
	Content           string
	TranslatedContent *string
	RecipientPhone    *string
}

type Service struct {
	store    MessageStore
	eventBus events.Bus
	log      *logger.Logger
}

func New(store MessageStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, log: log}
}

// Send validates and persists one message, normalizing the recipient phone
// to E.164 when present.
func (s *Service) Send(ctx context.Context, in SendInput) (repository.Message, error) {
	if !IsSenderType(in.SenderType) {
		return repository.Message{}, fmt.Errorf("unknown sender type %q", in.SenderType)
	}

	var recipient *string
	if in.RecipientPhone != nil {
		normalized := phone.NormalizeE164(*in.RecipientPhone)
		recipient = &normalized
	}

	msg, err := s.store.Insert(ctx, repository.Message{
		WorkOrderID:       in.WorkOrderID,
		SenderType:        in.SenderType,
		SenderName:        in.SenderName,
		Content:           in.Content,
		TranslatedContent: in.TranslatedContent,
		RecipientPhone:    recipient,
	})
	if err != nil {
		return repository.Message{}, err
	}

	s.eventBus.Publish(ctx, events.MessageSent{
		BaseEvent:   events.NewBaseEvent(),
		MessageID:   msg.ID,
		WorkOrderID: msg.WorkOrderID,
		SenderType:  msg.SenderType,
	})
	return msg, nil
}

func (s *Service) Thread(ctx context.Context, workOrderID uuid.UUID) ([]repository.Message, error) {
	return s.store.ListByWorkOrder(ctx, workOrderID)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.store.MarkRead(ctx, id)
}

func (s *Service) UnreadCount(ctx context.Context, workOrderID uuid.UUID) (int, error) {
	return s.store.UnreadCount(ctx, workOrderID)
}

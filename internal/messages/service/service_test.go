package service

import (
	"context"
	"testing"

	"maintops_backend/internal/events"
	"maintops_backend/internal/messages/repository"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	inserted []repository.Message
}

func (s *fakeStore) Insert(_ context.Context, m repository.Message) (repository.Message, error) {
	m.ID = uuid.New()
	s.inserted = append(s.inserted, m)
	return m, nil
}

func (s *fakeStore) ListByWorkOrder(context.Context, uuid.UUID) ([]repository.Message, error) {
	return s.inserted, nil
}

func (s *fakeStore) MarkRead(context.Context, uuid.UUID) error { return nil }

func (s *fakeStore) UnreadCount(context.Context, uuid.UUID) (int, error) { return 0, nil }

func newTestService(store *fakeStore) *Service {
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log)
}

func TestSendRejectsUnknownSenderType(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.Send(context.Background(), SendInput{
		WorkOrderID: uuid.New(),
		SenderType:  "robot",
		Content:     "beep",
	})
	if err == nil {
		t.Fatal("unknown sender type accepted")
	}
	if len(store.inserted) != 0 {
		t.Fatal("rejected message still persisted")
	}
}

func TestSendNormalizesRecipientPhone(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	raw := "(555) 867-5309"
	msg, err := svc.Send(context.Background(), SendInput{
		WorkOrderID:    uuid.New(),
		SenderType:     SenderSystem,
		SenderName:     "system",
		Content:        "A technician has been assigned.",
		RecipientPhone: &raw,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.RecipientPhone == nil {
		t.Fatal("recipient phone dropped")
	}
	// 555 numbers don't validate, so the trimmed input passes through.
	if *msg.RecipientPhone != "(555) 867-5309" {
		t.Fatalf("got %q, want the trimmed original for an unparseable number", *msg.RecipientPhone)
	}
}

func TestSendNormalizesValidUSNumberToE164(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	raw := " (212) 555-0123 "
	msg, err := svc.Send(context.Background(), SendInput{
		WorkOrderID:    uuid.New(),
		SenderType:     SenderCoordinator,
		SenderName:     "Ana",
		Content:        "We are on the way.",
		RecipientPhone: &raw,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if *msg.RecipientPhone != "+12125550123" {
		t.Fatalf("got %q, want +12125550123", *msg.RecipientPhone)
	}
}

func TestIsSenderType(t *testing.T) {
	for _, st := range []string{SenderTenant, SenderCoordinator, SenderTechnician, SenderSystem} {
		if !IsSenderType(st) {
			t.Errorf("IsSenderType(%q) = false, want true", st)
		}
	}
	if IsSenderType("bot") {
		t.Error("IsSenderType accepted an unknown type")
	}
}

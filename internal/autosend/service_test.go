package autosend

import (
	"context"
	"sync"
	"testing"
	"time"

	messagerepo "maintops_backend/internal/messages/repository"
	messageservice "maintops_backend/internal/messages/service"
	"maintops_backend/internal/notification/sse"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []messageservice.SendInput
}

func (r *recordingSender) Send(_ context.Context, in messageservice.SendInput) (messagerepo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, in)
	return messagerepo.Message{ID: uuid.New(), WorkOrderID: in.WorkOrderID}, nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newTestService(sender *recordingSender, ticks int, interval time.Duration) *Service {
	log := logger.New("test")
	return New(sender, sse.New(log), log, ticks, interval)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func stageFixture(t *testing.T, svc *Service) PendingMessage {
	t.Helper()
	msg, ok := svc.Stage(context.Background(), StagedWorkOrder{
		ID:           uuid.New(),
		Title:        "Broken thermostat",
		ResidentName: "Maria",
	}, TriggerAssigned)
	if !ok {
		t.Fatal("stage failed")
	}
	return msg
}

func TestCountdownExpiryAutoConfirms(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(sender, 3, 2*time.Millisecond)

	stageFixture(t, svc)

	waitFor(t, time.Second, func() bool { return sender.count() == 1 })

	sender.mu.Lock()
	sent := sender.sent[0]
	sender.mu.Unlock()
	if sent.SenderType != messageservice.SenderSystem {
		t.Fatalf("sender type %q, want system", sent.SenderType)
	}
	if len(svc.Pending()) != 0 {
		t.Fatal("expired message still pending")
	}
}

func TestCancelPersistsNothing(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(sender, 5, 5*time.Millisecond)

	msg := stageFixture(t, svc)
	if err := svc.Cancel(context.Background(), msg.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if sender.count() != 0 {
		t.Fatal("cancelled message was sent")
	}
	if len(svc.Pending()) != 0 {
		t.Fatal("cancelled message still pending")
	}
}

func TestConfirmSendsImmediately(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(sender, 1000, time.Minute)

	msg := stageFixture(t, svc)
	if err := svc.Confirm(context.Background(), msg.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("sent %d messages, want 1", sender.count())
	}

	// A second confirm for the same id must miss.
	if err := svc.Confirm(context.Background(), msg.ID); err == nil {
		t.Fatal("double confirm succeeded")
	}
	if sender.count() != 1 {
		t.Fatal("double confirm sent twice")
	}
}

func TestEditPausesCountdown(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(sender, 3, 30*time.Millisecond)

	msg := stageFixture(t, svc)
	edited, err := svc.Edit(context.Background(), msg.ID, "Custom wording for this tenant.")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !edited.Paused {
		t.Fatal("edit did not pause the countdown")
	}

	// Well past the original budget; nothing may send while paused.
	time.Sleep(200 * time.Millisecond)
	if sender.count() != 0 {
		t.Fatal("paused countdown expired")
	}

	if _, err := svc.Resume(context.Background(), msg.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return sender.count() == 1 })

	sender.mu.Lock()
	content := sender.sent[0].Content
	sender.mu.Unlock()
	if content != "Custom wording for this tenant." {
		t.Fatalf("sent %q, want the edited content", content)
	}
}

func TestStageDeduplicatesPerWorkOrderAndTrigger(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(sender, 1000, time.Minute)

	wo := StagedWorkOrder{ID: uuid.New(), Title: "Leak", ResidentName: "Sam"}
	if _, ok := svc.Stage(context.Background(), wo, TriggerAssigned); !ok {
		t.Fatal("first stage failed")
	}
	if _, ok := svc.Stage(context.Background(), wo, TriggerAssigned); ok {
		t.Fatal("duplicate stage accepted")
	}
	if _, ok := svc.Stage(context.Background(), wo, TriggerCompleted); !ok {
		t.Fatal("different trigger for the same work order rejected")
	}
	if len(svc.Pending()) != 2 {
		t.Fatalf("%d pending, want 2", len(svc.Pending()))
	}
}

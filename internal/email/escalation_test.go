package email

import (
	"context"
	"strings"
	"testing"

	"maintops_backend/internal/events"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

type capturingSender struct {
	received []events.GateEscalated
}

func (s *capturingSender) SendEscalation(_ context.Context, e events.GateEscalated) error {
	s.received = append(s.received, e)
	return nil
}

func TestSubscribeDeliversEscalations(t *testing.T) {
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	sender := &capturingSender{}
	Subscribe(bus, sender, log)

	event := events.GateEscalated{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: uuid.New(),
		TechnicianID: uuid.New(),
		Reason:       "emergency_redirect",
		Detail:       "Pulled to a burst pipe next door",
	}
	if err := bus.PublishSync(context.Background(), event); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	if len(sender.received) != 1 {
		t.Fatalf("received %d escalations, want 1", len(sender.received))
	}
	if sender.received[0].AssignmentID != event.AssignmentID {
		t.Fatal("wrong assignment delivered")
	}
}

func TestSubscribeWithNilSenderIsNoOp(t *testing.T) {
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	Subscribe(bus, nil, log)

	if err := bus.PublishSync(context.Background(), events.GateEscalated{BaseEvent: events.NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
}

func TestRenderEscalationIncludesReasonAndDetail(t *testing.T) {
	html := renderEscalation(events.GateEscalated{
		AssignmentID: uuid.New(),
		TechnicianID: uuid.New(),
		Reason:       "parts_needed",
		Detail:       "Compressor on backorder",
	})
	if !strings.Contains(html, "parts_needed") || !strings.Contains(html, "Compressor on backorder") {
		t.Fatalf("rendered email missing fields: %s", html)
	}

	html = renderEscalation(events.GateEscalated{Reason: "other"})
	if !strings.Contains(html, "(no detail provided)") {
		t.Fatal("empty detail not substituted")
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintops_backend/internal/events"
	"maintops_backend/internal/morninggate/repository"
	"maintops_backend/internal/notification"
	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	status   repository.GateStatus
	checkErr error

	submitRes   repository.SubmitResult
	submitErr   error
	submissions []repository.SubmitParams
}

func (s *fakeStore) CheckGate(context.Context, uuid.UUID) (repository.GateStatus, error) {
	return s.status, s.checkErr
}

func (s *fakeStore) SubmitExplanation(_ context.Context, p repository.SubmitParams) (repository.SubmitResult, error) {
	s.submissions = append(s.submissions, p)
	return s.submitRes, s.submitErr
}

func newTestService(store *fakeStore) *Service {
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), notification.NopNotifier{}, log)
}

func pendingFixture(technicianID uuid.UUID) repository.GateStatus {
	return repository.GateStatus{
		GateCleared:     false,
		IncompleteCount: 2,
		AddressedCount:  0,
		PendingItems: []repository.PendingItem{
			{
				AssignmentID:  uuid.New(),
				WorkOrderID:   uuid.New(),
				Title:         "Burst pipe in 4B",
				Priority:      "High",
				ScheduledDate: time.Now().AddDate(0, 0, -1),
				DaysOverdue:   1,
			},
			{
				AssignmentID:  uuid.New(),
				WorkOrderID:   uuid.New(),
				Title:         "Squeaky door hinge",
				Priority:      "Normal",
				ScheduledDate: time.Now().AddDate(0, 0, -1),
				DaysOverdue:   1,
			},
		},
	}
}

func TestCheckGateFailsOpenOnUnsetTechnician(t *testing.T) {
	svc := newTestService(&fakeStore{})

	status, err := svc.CheckGate(context.Background(), uuid.Nil)
	if err != nil {
		t.Fatalf("CheckGate: %v", err)
	}
	if !status.GateCleared {
		t.Fatal("unset technician must see a pre-cleared gate")
	}
}

func TestCheckGateFailsOpenOnStoreError(t *testing.T) {
	store := &fakeStore{checkErr: apperr.Unavailable("check_morning_gate unreachable", errors.New("dial timeout"))}
	svc := newTestService(store)

	status, err := svc.CheckGate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("CheckGate: %v", err)
	}
	if !status.GateCleared || !status.Degraded {
		t.Fatalf("got %+v, want degraded pre-cleared gate", status)
	}
}

func TestSubmitExplanationRejectsUnknownReason(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	res, err := svc.SubmitExplanation(context.Background(), SubmitInput{
		TechnicianID: uuid.New(),
		AssignmentID: uuid.New(),
		Reason:       "overslept",
	})
	if err != nil {
		t.Fatalf("SubmitExplanation: %v", err)
	}
	if res.Success {
		t.Fatal("unknown reason accepted")
	}
	if len(store.submissions) != 0 {
		t.Fatal("rejected reason still reached the store")
	}
}

func TestGateInvariantHoldsAcrossSubmissions(t *testing.T) {
	technicianID := uuid.New()
	store := &fakeStore{
		status:    pendingFixture(technicianID),
		submitRes: repository.SubmitResult{Success: true, Message: "recorded"},
	}
	svc := newTestService(store)

	if _, err := svc.CheckGate(context.Background(), technicianID); err != nil {
		t.Fatalf("CheckGate: %v", err)
	}

	initial, _ := svc.Session(technicianID)
	for _, item := range initial.PendingItems {
		if _, err := svc.SubmitExplanation(context.Background(), SubmitInput{
			TechnicianID: technicianID,
			AssignmentID: item.AssignmentID,
			Reason:       ReasonTimeRanOut,
		}); err != nil {
			t.Fatalf("SubmitExplanation: %v", err)
		}

		session, ok := svc.Session(technicianID)
		if !ok {
			t.Fatal("session lost after submission")
		}
		if got := session.AddressedCount + len(session.PendingItems); got != session.IncompleteCount {
			t.Fatalf("addressed %d + pending %d != incomplete %d",
				session.AddressedCount, len(session.PendingItems), session.IncompleteCount)
		}
		if session.GateCleared != (len(session.PendingItems) == 0) {
			t.Fatalf("gateCleared %v with %d pending items", session.GateCleared, len(session.PendingItems))
		}
	}

	final, _ := svc.Session(technicianID)
	if !final.GateCleared {
		t.Fatal("gate did not clear after every item was addressed")
	}
}

func TestHighPriorityEscalatesAndIgnoresNewDate(t *testing.T) {
	technicianID := uuid.New()
	fixture := pendingFixture(technicianID)
	store := &fakeStore{
		status:    fixture,
		submitRes: repository.SubmitResult{Success: true, Message: "escalated", Escalated: true},
	}
	svc := newTestService(store)

	if _, err := svc.CheckGate(context.Background(), technicianID); err != nil {
		t.Fatalf("CheckGate: %v", err)
	}

	requested := time.Now().AddDate(0, 0, 3)
	res, err := svc.SubmitExplanation(context.Background(), SubmitInput{
		TechnicianID: technicianID,
		AssignmentID: fixture.PendingItems[0].AssignmentID, // the High item
		Reason:       ReasonEmergencyRedirect,
		NewDate:      &requested,
	})
	if err != nil {
		t.Fatalf("SubmitExplanation: %v", err)
	}
	if !res.Escalated {
		t.Fatal("high-priority item did not escalate")
	}

	sent := store.submissions[len(store.submissions)-1]
	if sent.NewDate != nil {
		t.Fatalf("escalated submission carried newDate %v, want nil", sent.NewDate)
	}
}

func TestNormalPriorityReschedulesWithoutEscalation(t *testing.T) {
	technicianID := uuid.New()
	fixture := pendingFixture(technicianID)
	store := &fakeStore{
		status:    fixture,
		submitRes: repository.SubmitResult{Success: true, Message: "rescheduled"},
	}
	svc := newTestService(store)

	if _, err := svc.CheckGate(context.Background(), technicianID); err != nil {
		t.Fatalf("CheckGate: %v", err)
	}

	nextMonday := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	res, err := svc.SubmitExplanation(context.Background(), SubmitInput{
		TechnicianID: technicianID,
		AssignmentID: fixture.PendingItems[1].AssignmentID, // the Normal item
		Reason:       ReasonTenantReschedule,
		NewDate:      &nextMonday,
	})
	if err != nil {
		t.Fatalf("SubmitExplanation: %v", err)
	}
	if res.Escalated {
		t.Fatal("normal-priority item escalated")
	}

	sent := store.submissions[len(store.submissions)-1]
	if sent.NewDate == nil || !sent.NewDate.Equal(nextMonday) {
		t.Fatalf("submission newDate %v, want %v", sent.NewDate, nextMonday)
	}
}

func TestSubmitFallsBackLocallyWhenStoreUnavailable(t *testing.T) {
	technicianID := uuid.New()
	store := &fakeStore{
		status:    pendingFixture(technicianID),
		submitErr: apperr.Unavailable("submit_incomplete_explanation unreachable", errors.New("dial timeout")),
	}
	svc := newTestService(store)

	if _, err := svc.CheckGate(context.Background(), technicianID); err != nil {
		t.Fatalf("CheckGate: %v", err)
	}
	fixture, _ := svc.Session(technicianID)

	res, err := svc.SubmitExplanation(context.Background(), SubmitInput{
		TechnicianID: technicianID,
		AssignmentID: fixture.PendingItems[1].AssignmentID,
		Reason:       ReasonPartsNeeded,
	})
	if err != nil {
		t.Fatalf("SubmitExplanation: %v", err)
	}
	if !res.Success || !res.Degraded {
		t.Fatalf("got %+v, want degraded success", res)
	}

	session, _ := svc.Session(technicianID)
	if session.AddressedCount != 1 || len(session.PendingItems) != 1 {
		t.Fatalf("session %+v, want one addressed and one pending", session)
	}
}

package service

import (
	"context"
	"testing"

	"maintops_backend/internal/events"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/workorders/store"
	"maintops_backend/platform/logger"
)

type countingStore struct {
	calls int
}

func (s *countingStore) Assign(context.Context, store.AssignParams) (store.Result, error) {
	s.calls++
	return store.Result{Success: true}, nil
}

func (s *countingStore) MarkReadyForReview(context.Context, store.ReadyParams) (store.Result, error) {
	s.calls++
	return store.Result{Success: true}, nil
}

func (s *countingStore) Complete(context.Context, store.CompleteParams) (store.Result, error) {
	s.calls++
	return store.Result{Success: true}, nil
}

func (s *countingStore) RecordOverride(context.Context, store.OverrideParams) (store.OverrideResult, error) {
	s.calls++
	return store.OverrideResult{Result: store.Result{Success: true}, DisplacedCount: 2}, nil
}

func newTestService(st store.LifecycleStore) *Service {
	log := logger.New("test")
	return New(st, nil, nil, events.NewInMemoryBus(log), notification.NopNotifier{}, log)
}

func TestCompleteRejectsNonApproverWithoutStoreCall(t *testing.T) {
	st := &countingStore{}
	svc := newTestService(st)

	for _, role := range []string{"technician", "tenant", "viewer", ""} {
		res, err := svc.Complete(context.Background(), store.CompleteParams{ApproverRole: role})
		if err != nil {
			t.Fatalf("Complete(role=%q): %v", role, err)
		}
		if res.Success {
			t.Fatalf("Complete(role=%q) succeeded, want rejection", role)
		}
	}
	if st.calls != 0 {
		t.Fatalf("store received %d calls, want 0 for rejected roles", st.calls)
	}
}

func TestCompleteAllowsApproverRoles(t *testing.T) {
	st := &countingStore{}
	svc := newTestService(st)

	for _, role := range []string{"coordinator", "supervisor", "manager", "admin"} {
		res, err := svc.Complete(context.Background(), store.CompleteParams{ApproverRole: role})
		if err != nil {
			t.Fatalf("Complete(role=%q): %v", role, err)
		}
		if !res.Success {
			t.Fatalf("Complete(role=%q) rejected, want success", role)
		}
	}
	if st.calls != 4 {
		t.Fatalf("store received %d calls, want 4", st.calls)
	}
}

func TestRecordOverrideValidatesReason(t *testing.T) {
	st := &countingStore{}
	svc := newTestService(st)

	res, err := svc.RecordOverride(context.Background(), store.OverrideParams{Reason: "vacation"})
	if err != nil {
		t.Fatalf("RecordOverride: %v", err)
	}
	if res.Success {
		t.Fatal("unknown reason must be rejected")
	}
	if st.calls != 0 {
		t.Fatal("invalid reason must not reach the store")
	}

	res, err = svc.RecordOverride(context.Background(), store.OverrideParams{Reason: "turnover"})
	if err != nil {
		t.Fatalf("RecordOverride: %v", err)
	}
	if !res.Success || res.DisplacedCount != 2 {
		t.Fatalf("got success=%v displaced=%d, want true/2", res.Success, res.DisplacedCount)
	}
}

func TestIsApproverRole(t *testing.T) {
	for role, want := range map[string]bool{
		"coordinator": true,
		"supervisor":  true,
		"manager":     true,
		"admin":       true,
		"technician":  false,
		"Coordinator": false, // case-sensitive on purpose
		"":            false,
	} {
		if got := IsApproverRole(role); got != want {
			t.Errorf("IsApproverRole(%q) = %v, want %v", role, got, want)
		}
	}
}

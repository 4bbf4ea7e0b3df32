package store

import (
	"context"
	"errors"
	"testing"

	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"
)

type scriptedStore struct {
	result   Result
	override OverrideResult
	err      error
	calls    int
}

func (s *scriptedStore) Assign(context.Context, AssignParams) (Result, error) {
	s.calls++
	return s.result, s.err
}

func (s *scriptedStore) MarkReadyForReview(context.Context, ReadyParams) (Result, error) {
	s.calls++
	return s.result, s.err
}

func (s *scriptedStore) Complete(context.Context, CompleteParams) (Result, error) {
	s.calls++
	return s.result, s.err
}

func (s *scriptedStore) RecordOverride(context.Context, OverrideParams) (OverrideResult, error) {
	s.calls++
	return s.override, s.err
}

func TestFailoverUsesPrimaryOnSuccess(t *testing.T) {
	primary := &scriptedStore{result: Result{Success: true, Message: "done"}}
	fallback := &scriptedStore{result: Result{Success: true, Message: "fallback"}}
	f := NewFailover(primary, fallback, logger.New("test"))

	res, err := f.Assign(context.Background(), AssignParams{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Message != "done" {
		t.Fatalf("Message = %q, want primary result", res.Message)
	}
	if fallback.calls != 0 {
		t.Fatal("fallback must not run when primary succeeds")
	}
}

func TestFailoverEngagesFallbackWhenPrimaryUnavailable(t *testing.T) {
	primary := &scriptedStore{err: apperr.Unavailable("procedure missing", errors.New("42883"))}
	fallback := &scriptedStore{result: Result{Success: true, Message: "direct write"}}
	f := NewFailover(primary, fallback, logger.New("test"))

	res, err := f.MarkReadyForReview(context.Background(), ReadyParams{})
	if err != nil {
		t.Fatalf("MarkReadyForReview: %v", err)
	}
	if res.Message != "direct write" {
		t.Fatalf("Message = %q, want fallback result", res.Message)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("calls primary=%d fallback=%d, want 1/1", primary.calls, fallback.calls)
	}
}

func TestFailoverBusinessRejectionIsFinal(t *testing.T) {
	primary := &scriptedStore{result: Result{Success: false, Message: "technician unavailable on that date"}}
	fallback := &scriptedStore{result: Result{Success: true, Message: "should not run"}}
	f := NewFailover(primary, fallback, logger.New("test"))

	res, err := f.Assign(context.Background(), AssignParams{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Success {
		t.Fatal("rejection must propagate")
	}
	if fallback.calls != 0 {
		t.Fatal("business rejection must not trigger the fallback path")
	}
}

func TestFailoverNonAvailabilityErrorPropagates(t *testing.T) {
	primary := &scriptedStore{err: context.Canceled}
	fallback := &scriptedStore{}
	f := NewFailover(primary, fallback, logger.New("test"))

	_, err := f.Complete(context.Background(), CompleteParams{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if fallback.calls != 0 {
		t.Fatal("cancellation must not trigger the fallback path")
	}
}

// casStore mimics the guarded completion write: the row flips only when it
// sits at ready_for_review, and the call reports success either way.
type casStore struct {
	scriptedStore
	status string
}

func (s *casStore) Complete(context.Context, CompleteParams) (Result, error) {
	s.calls++
	if s.status == "ready_for_review" {
		s.status = "completed"
	}
	return Result{Success: true, Message: "Work order completed", Degraded: true}, nil
}

func TestFailoverCompleteConflictIsSilentNoOp(t *testing.T) {
	primary := &scriptedStore{err: apperr.Unavailable("down", errors.New("conn refused"))}
	fallback := &casStore{status: "in_progress"}
	f := NewFailover(primary, fallback, logger.New("test"))

	res, err := f.Complete(context.Background(), CompleteParams{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !res.Success {
		t.Fatal("conflicting completion must still report success")
	}
	if fallback.status != "in_progress" {
		t.Fatalf("status = %q, want the row left at in_progress", fallback.status)
	}

	fallback.status = "ready_for_review"
	if _, err := f.Complete(context.Background(), CompleteParams{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if fallback.status != "completed" {
		t.Fatalf("status = %q, want completed once the guard matches", fallback.status)
	}
}

func TestFailoverRecordOverridePropagatesDisplacedCount(t *testing.T) {
	primary := &scriptedStore{err: apperr.Unavailable("down", errors.New("conn refused"))}
	fallback := &scriptedStore{override: OverrideResult{
		Result:         Result{Success: true, Message: "ok"},
		DisplacedCount: 3,
	}}
	f := NewFailover(primary, fallback, logger.New("test"))

	res, err := f.RecordOverride(context.Background(), OverrideParams{})
	if err != nil {
		t.Fatalf("RecordOverride: %v", err)
	}
	if res.DisplacedCount != 3 {
		t.Fatalf("DisplacedCount = %d, want 3", res.DisplacedCount)
	}
}

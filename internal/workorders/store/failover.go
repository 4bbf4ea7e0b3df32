package store

import (
	"context"

	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"
)

// Failover selects between the procedure path and the direct-mutation path.
// The fallback engages only when the primary reports unavailability; a
// business rejection from the primary is final.
type Failover struct {
	primary  LifecycleStore
	fallback LifecycleStore
	log      *logger.Logger
}

func NewFailover(primary, fallback LifecycleStore, log *logger.Logger) *Failover {
	return &Failover{primary: primary, fallback: fallback, log: log}
}

func (f *Failover) Assign(ctx context.Context, p AssignParams) (Result, error) {
	res, err := f.primary.Assign(ctx, p)
	if err != nil && apperr.IsUnavailable(err) {
		f.log.Fallback("assign_work_order", err)
		return f.fallback.Assign(ctx, p)
	}
	return res, err
}

func (f *Failover) MarkReadyForReview(ctx context.Context, p ReadyParams) (Result, error) {
	res, err := f.primary.MarkReadyForReview(ctx, p)
	if err != nil && apperr.IsUnavailable(err) {
		f.log.Fallback("mark_ready_for_review", err)
		return f.fallback.MarkReadyForReview(ctx, p)
	}
	return res, err
}

func (f *Failover) Complete(ctx context.Context, p CompleteParams) (Result, error) {
	res, err := f.primary.Complete(ctx, p)
	if err != nil && apperr.IsUnavailable(err) {
		f.log.Fallback("complete_work_order", err)
		return f.fallback.Complete(ctx, p)
	}
	return res, err
}

func (f *Failover) RecordOverride(ctx context.Context, p OverrideParams) (OverrideResult, error) {
	res, err := f.primary.RecordOverride(ctx, p)
	if err != nil && apperr.IsUnavailable(err) {
		f.log.Fallback("record_override", err)
		return f.fallback.RecordOverride(ctx, p)
	}
	return res, err
}

var _ LifecycleStore = (*Failover)(nil)

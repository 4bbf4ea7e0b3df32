package store

import (
	"context"
	"errors"

	"maintops_backend/platform/apperr"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RPCStore calls the named database procedures. Any call error is reported
// as unavailable so the failover wrapper can engage the fallback; the
// procedures signal business rejections through their (success, message)
// return row instead of raising.
type RPCStore struct {
	pool *pgxpool.Pool
}

func NewRPCStore(pool *pgxpool.Pool) *RPCStore {
	return &RPCStore{pool: pool}
}

func (s *RPCStore) Assign(ctx context.Context, p AssignParams) (Result, error) {
	var res Result
	err := s.pool.QueryRow(ctx, `
		SELECT success, message FROM assign_work_order($1, $2, $3, $4, $5)
	`, p.WorkOrderID, p.TechnicianID, p.Date, p.TimeWindow, p.AssignedBy).
		Scan(&res.Success, &res.Message)
	if err != nil {
		return Result{}, rpcUnavailable("assign_work_order", err)
	}
	return res, nil
}

func (s *RPCStore) MarkReadyForReview(ctx context.Context, p ReadyParams) (Result, error) {
	var res Result
	err := s.pool.QueryRow(ctx, `
		SELECT success, message FROM mark_ready_for_review($1, $2, $3)
	`, p.WorkOrderID, p.TechnicianID, p.Notes).
		Scan(&res.Success, &res.Message)
	if err != nil {
		return Result{}, rpcUnavailable("mark_ready_for_review", err)
	}
	return res, nil
}

func (s *RPCStore) Complete(ctx context.Context, p CompleteParams) (Result, error) {
	var res Result
	err := s.pool.QueryRow(ctx, `
		SELECT success, message FROM complete_work_order($1, $2, $3, $4)
	`, p.WorkOrderID, p.ApprovedBy, p.ApproverRole, p.Notes).
		Scan(&res.Success, &res.Message)
	if err != nil {
		return Result{}, rpcUnavailable("complete_work_order", err)
	}
	return res, nil
}

func (s *RPCStore) RecordOverride(ctx context.Context, p OverrideParams) (OverrideResult, error) {
	var res OverrideResult
	err := s.pool.QueryRow(ctx, `
		SELECT success, message, displaced_count FROM record_override($1, $2, $3, $4)
	`, p.TechnicianID, p.OverrideBy, p.Reason, p.Detail).
		Scan(&res.Success, &res.Message, &res.DisplacedCount)
	if err != nil {
		return OverrideResult{}, rpcUnavailable("record_override", err)
	}
	return res, nil
}

// rpcUnavailable wraps a procedure-call error, preserving context
// cancellation so the failover wrapper does not retry a dead request.
func rpcUnavailable(procedure string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Unavailable("procedure "+procedure+" unavailable", err)
}

var _ LifecycleStore = (*RPCStore)(nil)
